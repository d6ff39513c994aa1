package sql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bloggo/eventing"
	log "bloggo/logging"
)

// preparedEvent 预处理的事件数据（插入前统一校验与序列化）
type preparedEvent struct {
	id            string
	typ           string
	aggregateType string
	version       uint64
	timestamp     time.Time
	payloadJSON   string
	metadataJSON  string
}

// AppendEvents 原子追加事件到聚合流
//
// 版本检查与插入在同一事务内执行；任一步失败整体回滚，
// 不存在部分追加。主键冲突说明有并发写入者抢先提交了同版本
// 事件，报告为并发冲突。
func (s *SQLEventStore) AppendEvents(ctx context.Context, aggregateID string, events []*eventing.Event, expectedVersion uint64) error {
	if len(events) == 0 {
		return nil
	}

	prepared, err := s.prepare(aggregateID, events, expectedVersion)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eventing.NewStoreFailedError("begin transaction failed", err)
	}
	defer tx.Rollback()

	// 版本检查：行数即流长度，长度是版本的唯一权威
	var currentVersion uint64
	row := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE aggregate_id = ?", s.tableName), aggregateID)
	if err := row.Scan(&currentVersion); err != nil {
		return eventing.NewStoreFailedError("query current version failed", err)
	}
	if currentVersion != expectedVersion {
		return eventing.NewConcurrencyError(aggregateID, expectedVersion, currentVersion)
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (id, aggregate_id, aggregate_type, type, version, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.tableName)
	for _, p := range prepared {
		if _, err := tx.ExecContext(ctx, insertSQL,
			p.id, aggregateID, p.aggregateType, p.typ, p.version, p.timestamp, p.payloadJSON, p.metadataJSON); err != nil {
			if isDuplicateKeyError(err) {
				// 并发提交者在版本检查后插入了同版本事件
				return eventing.NewConcurrencyError(aggregateID, expectedVersion, currentVersion)
			}
			return eventing.NewStoreFailedError("insert event failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return eventing.NewStoreFailedError("commit transaction failed", err)
	}

	log.GetLogger().Debug(ctx, "events appended",
		log.String("aggregate_id", aggregateID),
		log.Int("event_count", len(events)))
	return nil
}

// prepare 校验并序列化整个批次（失败则不触碰数据库）
func (s *SQLEventStore) prepare(aggregateID string, events []*eventing.Event, expectedVersion uint64) ([]preparedEvent, error) {
	prepared := make([]preparedEvent, 0, len(events))
	for idx, evt := range events {
		if evt.AggregateID != aggregateID {
			return nil, eventing.NewInvalidEventError(evt.GetID(), evt.GetType(), "event aggregate id mismatch")
		}
		want := expectedVersion + uint64(idx) + 1
		if evt.GetVersion() != want {
			return nil, eventing.NewInvalidEventError(evt.GetID(), evt.GetType(),
				fmt.Sprintf("event version mismatch: expected %d, got %d", want, evt.GetVersion()))
		}
		if err := evt.Validate(); err != nil {
			return nil, eventing.NewInvalidEventError(evt.GetID(), evt.GetType(), err.Error())
		}

		payloadJSON, err := json.Marshal(evt.GetPayload())
		if err != nil {
			return nil, &eventing.EventStoreError{Code: eventing.ErrCodeSerializePayload,
				Message: "serialize payload failed", Cause: err, EventID: evt.GetID(), EventType: evt.GetType()}
		}
		metadataJSON, err := json.Marshal(evt.GetMetadata())
		if err != nil {
			return nil, &eventing.EventStoreError{Code: eventing.ErrCodeSerializePayload,
				Message: "serialize metadata failed", Cause: err, EventID: evt.GetID(), EventType: evt.GetType()}
		}

		prepared = append(prepared, preparedEvent{
			id:            evt.GetID(),
			typ:           evt.GetType(),
			aggregateType: evt.GetAggregateType(),
			version:       evt.GetVersion(),
			timestamp:     evt.GetTimestamp(),
			payloadJSON:   string(payloadJSON),
			metadataJSON:  string(metadataJSON),
		})
	}
	return prepared, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
