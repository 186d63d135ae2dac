// Package event 提供进程内按注册顺序同步分发的通知总线。
package event

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Name 标识一类事件。
type Name string

const (
	BeforeRequest    Name = "before_request"
	AfterRequest     Name = "after_request"
	GenerationFailed Name = "generation_failed"
	BrandTrained     Name = "brand_trained"
	SettingsSaved    Name = "settings_saved"
	AltTextGenerated Name = "alt_text_generated"
)

// Event 为总线上传递的消息，Payload 的具体类型由 Name 决定。
type Event struct {
	Name    Name
	Payload any
}

// RequestPayload 对应 BeforeRequest。
type RequestPayload struct {
	Endpoint string
	Body     map[string]any
}

// ResponsePayload 对应 AfterRequest。
type ResponsePayload struct {
	Endpoint string
	Response map[string]any
}

// FailurePayload 对应 GenerationFailed，Body 为原始请求体。
type FailurePayload struct {
	Endpoint string
	Err      error
	Body     map[string]any
}

// AltTextPayload 对应 AltTextGenerated。
type AltTextPayload struct {
	AttachmentID int64
	AltText      string
}

// Handler 处理单个事件。
type Handler func(Event)

// Publisher 为只发布事件的一方提供的最小接口。
type Publisher interface {
	Publish(Event)
}

// Bus 同步分发事件，订阅者按注册顺序执行，单个订阅者 panic 不影响其余订阅者。
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	logger   *zap.Logger
}

// NewBus 创建事件总线。
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{handlers: make(map[Name][]Handler), logger: logger}
}

// Subscribe 注册事件处理函数。
func (b *Bus) Subscribe(name Name, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish 分发事件。
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.Name]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(handler, evt)
	}
}

func (b *Bus) dispatch(handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(evt.Name)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	handler(evt)
}
