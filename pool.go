package iso8583

import (
	"strings"
	"sync"
)

// messagePool holds reusable Message objects.
var messagePool = sync.Pool{
	New: func() interface{} {
		return &Message{fields: make(map[int]string, 16)}
	},
}

var textPool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

func getBuilder() *strings.Builder {
	sb := textPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

func putBuilder(sb *strings.Builder) {
	if sb.Cap() <= 16384 { // Don't pool huge buffers
		textPool.Put(sb)
	}
}
