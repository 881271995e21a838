package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	q "github.com/blevesearch/bleve/v2/search/query"
)

// buildQuery 把历史查询编译成bleve查询：
// 关键字在文本字段上OR匹配，其余条件按term等值过滤。
func buildQuery(req Query) q.Query {
	var must []q.Query

	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		parts := make([]q.Query, 0, len(textSearchFields))
		for _, f := range textSearchFields {
			mq := bleve.NewMatchQuery(kw)
			mq.SetField(f)
			parts = append(parts, mq)
		}
		must = append(must, bleve.NewDisjunctionQuery(parts...))
	}

	for field, value := range map[string]string{
		"status":         req.Severity,
		"resolutionType": req.Resolution,
		"userId":         req.UserID,
	} {
		if value == "" {
			continue
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		must = append(must, tq)
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	bq := bleve.NewBooleanQuery()
	bq.AddMust(must...)
	return bq
}
