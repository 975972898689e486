package async

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var (
	Pool = NewParamPool()
	Get  = Pool.Get
	Put  = Pool.Put
)

type ParamPool interface {
	Get() *Param
	Put(*Param)
}

// Param is the envelope of every task message; Data is decoded by the handler registered for TaskType.
type Param struct {
	TaskType string                 `json:"task_type" binding:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Data     jsoniter.RawMessage    `json:"data"`
}

func NewParamPool() ParamPool {
	return &defaultParamPool{pool: sync.Pool{New: func() interface{} {
		return &Param{Metadata: make(map[string]interface{})}
	}}}
}

type defaultParamPool struct {
	pool sync.Pool
}

func (d *defaultParamPool) Get() *Param {
	v, ok := d.pool.Get().(*Param)
	if !ok {
		return &Param{Metadata: make(map[string]interface{})}
	}
	return v
}

func (d *defaultParamPool) Put(param *Param) {
	param.TaskType = ""
	for key := range param.Metadata {
		delete(param.Metadata, key)
	}
	param.Data = param.Data[:0]
	d.pool.Put(param)
}
