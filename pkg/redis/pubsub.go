package redis

import (
	"context"
)

// MessageHandler 定義訂閱訊息的處理函式類型
//
// 參數:
//
//	payload: []byte - 接收到的訊息內容
type MessageHandler func(payload []byte)

// Subscription 代表一個進行中的訂閱
type Subscription interface {
	Close() error
}

// Publish 發送訊息到指定頻道
//
// 參數:
//
//	ctx: context.Context - 上下文
//	channel: string - 目標頻道名稱
//	payload: []byte - 要發送的訊息內容
//
// 回傳值:
//
//	error: 若發送失敗則回傳錯誤
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe 訂閱指定頻道並處理接收到的訊息
// 此方法會啟動一個背景 goroutine 來處理接收到的訊息，
// ctx 結束或呼叫回傳的 Subscription.Close 時停止。
//
// 參數:
//
//	ctx: context.Context - 上下文
//	channel: string - 要訂閱的頻道名稱
//	handler: MessageHandler - 訊息處理函式
//
// 回傳值:
//
//	Subscription: 訂閱
//	error: 若訂閱失敗則回傳錯誤
func (c *Client) Subscribe(ctx context.Context, channel string, handler MessageHandler) (Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, channel)

	// 驗證訂閱是否成功
	// Receive 會等待直到接收到訂閱確認訊息或發生錯誤
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	ch := pubsub.Channel()
	go func() {
		// 監聽 Go channel，當 pubsub 被關閉時迴圈會結束
		for msg := range ch {
			handler([]byte(msg.Payload))
		}
	}()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			pubsub.Close()
		}()
	}

	return pubsub, nil
}
