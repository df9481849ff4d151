package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStopped Loop 已停止，無法再排入工作
var ErrLoopStopped = errors.New("main loop stopped")

type loopKey struct{}

// Loop 是單一 goroutine 的主執行環境 (Main Execution Context)。
// 所有交易前後通知都在這裡依序執行，觀察者看到的順序即為排入順序。
//
// 在 Loop 上執行的工作會拿到帶有標記的 ctx；
// 若工作內再以該 ctx 呼叫 Call，會直接同步執行，避免自己等自己造成死結。
type Loop struct {
	tasks  chan func(ctx context.Context)
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewLoop 建立主執行環境
//
// 參數:
//
//	buffer: int - 工作佇列長度
//	logger: *slog.Logger - 日誌
func NewLoop(buffer int, logger *slog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan func(ctx context.Context), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start 在背景啟動 Loop
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
}

// Run 執行 Loop 直到 ctx 結束或呼叫 Stop (Blocking)
func (l *Loop) Run(ctx context.Context) {
	loopCtx := context.WithValue(ctx, loopKey{}, l)
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			l.exec(loopCtx, task)
		}
	}
}

// Stop 停止 Loop；尚未執行的工作會被丟棄
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Call 在 Loop 上同步執行 fn 並等待結果。
// 一旦排入佇列就會等到執行完成，不受 ctx 取消影響。
//
// 回傳值:
//
//	bool: fn 的回傳值
//	error: ctx 在排入前結束或 Loop 已停止
func (l *Loop) Call(ctx context.Context, fn func(ctx context.Context) bool) (bool, error) {
	if l == nil {
		return fn(ctx), nil
	}
	if l.onLoop(ctx) {
		return fn(ctx), nil
	}

	result := make(chan bool, 1)
	task := func(loopCtx context.Context) {
		ok := false
		defer func() { result <- ok }()
		ok = fn(loopCtx)
	}

	select {
	case l.tasks <- task:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-l.done:
		return false, ErrLoopStopped
	}

	select {
	case ok := <-result:
		return ok, nil
	case <-l.done:
		return false, ErrLoopStopped
	}
}

// Post 將 fn 排入 Loop 執行，不等待結果。
// 佇列已滿時改由背景 goroutine 排入，呼叫端永遠不會被阻塞。
func (l *Loop) Post(fn func(ctx context.Context)) {
	if l == nil {
		go fn(context.Background())
		return
	}
	select {
	case l.tasks <- fn:
	case <-l.done:
	default:
		go func() {
			select {
			case l.tasks <- fn:
			case <-l.done:
			}
		}()
	}
}

func (l *Loop) onLoop(ctx context.Context) bool {
	v, _ := ctx.Value(loopKey{}).(*Loop)
	return v == l
}

func (l *Loop) exec(ctx context.Context, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Main loop task panicked", "panic", r)
		}
	}()
	task(ctx)
}
