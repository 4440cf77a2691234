// Package audit is the write-only sink every mutating use case records into.
package audit

import (
	"context"
	"encoding/json"

	"talent/internal/platform/querier"
	"talent/internal/requestctx"
)

type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

type Recorder struct {
	DB querier.Querier
}

func New(db querier.Querier) *Recorder {
	return &Recorder{DB: db}
}

// Record inserts one audit row. Request id and client ip come from ctx.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return err
	}

	var actor any
	if entry.ActorID != "" {
		actor = entry.ActorID
	}

	req := requestctx.From(ctx)
	_, err = r.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, actor, entry.Action, entry.EntityType, entry.EntityID, beforeJSON, afterJSON,
		req.ID, req.ClientIP)
	return err
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
