package dispatch

import (
	ws "HibiscusSOS/pkg/websocket"
)

// Router 把事件路由器适配到WebSocket集线器的路由接口
type Router struct {
	d *Dispatcher
}

func NewRouter(d *Dispatcher) *Router { return &Router{d: d} }

func (r *Router) Route(raw []byte) []ws.Frame {
	out := r.d.Dispatch(raw)
	if len(out) == 0 {
		return nil
	}
	frames := make([]ws.Frame, 0, len(out))
	for _, o := range out {
		frames = append(frames, ws.Frame{Type: o.Type, Payload: o.Payload})
	}
	return frames
}

func (r *Router) Snapshot() interface{} { return r.d.Snapshot() }

var _ ws.Router = (*Router)(nil)
