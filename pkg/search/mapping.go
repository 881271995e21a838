package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping 历史告警的索引映射：
// 文本字段（转写、AI分析、地址）走标准分词，
// 枚举字段（级别、归档方式、用户）走keyword精确匹配。
func buildIndexMapping() *mapping.IndexMappingImpl {
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = standard.Name
	idx.TypeField = "type"

	// 文本
	text := mapping.NewTextFieldMapping()
	text.Store = true
	text.Index = true
	text.Analyzer = standard.Name
	text.IncludeInAll = true
	text.IncludeTermVectors = true // 高亮更精准

	// 关键词
	kw := mapping.NewTextFieldMapping()
	kw.Store = true
	kw.Index = true
	kw.Analyzer = keyword.Name

	// 时间
	dt := mapping.NewDateTimeFieldMapping()
	dt.Store = true
	dt.Index = true

	alert := mapping.NewDocumentMapping()
	alert.Dynamic = false
	alert.AddFieldMappingsAt("transcript", text)
	alert.AddFieldMappingsAt("aiReasoning", text)
	alert.AddFieldMappingsAt("videoAnalysis", text)
	alert.AddFieldMappingsAt("fullAddress", text)
	alert.AddFieldMappingsAt("location", kw)
	alert.AddFieldMappingsAt("userId", kw)
	alert.AddFieldMappingsAt("status", kw)
	alert.AddFieldMappingsAt("resolutionType", kw)
	alert.AddFieldMappingsAt("timestamp", dt)
	alert.AddFieldMappingsAt("resolvedAt", dt)
	idx.AddDocumentMapping("alert", alert)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}
