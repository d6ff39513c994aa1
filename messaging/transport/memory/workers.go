package memory

import (
	"context"
	"fmt"

	"bloggo/messaging"
)

// Start 启动传输层
//
// 为每个分区分配队列并启动一个顺序 worker。
func (t *MemoryTransport) Start(ctx context.Context) error {
	t.mutex.Lock()
	if t.running {
		t.mutex.Unlock()
		return fmt.Errorf("memory transport is already running")
	}

	t.running = true
	for i := 0; i < t.partitionCount; i++ {
		t.partitions[i] = make(chan messaging.IMessage, t.queueSize)
	}

	for i := 0; i < t.partitionCount; i++ {
		t.wg.Add(1)
		go t.worker(ctx, t.partitions[i])
	}
	t.mutex.Unlock()
	return nil
}

// Close 关闭传输层
//
// 关闭所有分区队列，worker 读完缓冲中的消息后自然退出。
func (t *MemoryTransport) Close() error {
	t.mutex.Lock()
	if !t.running {
		t.mutex.Unlock()
		return fmt.Errorf("memory transport is not running")
	}
	t.running = false
	queues := make([]chan messaging.IMessage, len(t.partitions))
	copy(queues, t.partitions)
	t.mutex.Unlock()

	for _, q := range queues {
		close(q)
	}

	t.wg.Wait()
	return nil
}

// worker 分区工作协程
//
// 从分区队列中顺序取出消息并分发。取消只在两次取出之间生效，
// 不会打断一次正在进行的分发。
func (t *MemoryTransport) worker(ctx context.Context, queue chan messaging.IMessage) {
	defer t.wg.Done()

	for {
		select {
		case message, ok := <-queue:
			if !ok {
				return
			}
			t.dispatch(ctx, message)
		case <-ctx.Done():
			return
		}
	}
}
