package sql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bloggo/eventing"
)

// LoadEvents 加载聚合的完整有序事件流
//
// 载荷以 json.RawMessage 返回，由消费方通过事件注册表解析为强类型。
func (s *SQLEventStore) LoadEvents(ctx context.Context, aggregateID string) ([]eventing.Event, error) {
	query := fmt.Sprintf(
		`SELECT id, aggregate_id, aggregate_type, type, version, timestamp, payload, metadata FROM %s WHERE aggregate_id = ? ORDER BY version ASC`,
		s.tableName)
	rows, err := s.db.QueryContext(ctx, query, aggregateID)
	if err != nil {
		return nil, eventing.NewStoreFailedError("query events failed", err)
	}
	defer rows.Close()

	var events []eventing.Event
	for rows.Next() {
		var (
			evt          eventing.Event
			timestamp    time.Time
			payloadJSON  string
			metadataJSON string
		)
		if err := rows.Scan(&evt.ID, &evt.AggregateID, &evt.AggregateType, &evt.Type,
			&evt.Version, &timestamp, &payloadJSON, &metadataJSON); err != nil {
			return nil, eventing.NewStoreFailedError("scan event failed", err)
		}
		evt.Timestamp = timestamp
		evt.Key = evt.AggregateID
		evt.Payload = json.RawMessage(payloadJSON)

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, eventing.NewStoreFailedError("decode event metadata failed", err)
		}
		evt.Metadata = metadata

		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, eventing.NewStoreFailedError("iterate events failed", err)
	}

	if len(events) == 0 {
		return nil, eventing.ErrAggregateNotFound
	}
	return events, nil
}

// ListAggregateIDs 枚举所有已知聚合流
func (s *SQLEventStore) ListAggregateIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT aggregate_id FROM %s ORDER BY aggregate_id`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eventing.NewStoreFailedError("query aggregate ids failed", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eventing.NewStoreFailedError("scan aggregate id failed", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eventing.NewStoreFailedError("iterate aggregate ids failed", err)
	}
	return ids, nil
}
