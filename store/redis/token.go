package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// ApplyBatch persists one queue mutation. The primary token, the patient
// lookup entry, and every rank shift go through a single MULTI/EXEC
// pipeline so a crash cannot leave the ranks half renumbered.
func (s *Store) ApplyBatch(ctx context.Context, b *token.Batch) error {
	pipe := s.client.TxPipeline()

	if b.Primary != nil {
		t := b.Primary
		tID := t.ID.String()

		if t.Status == token.StatusActive {
			// Reject a second active token for the same patient unless it
			// is this token being rewritten (reprioritize case).
			existing, err := s.client.HGet(ctx, activePatientsKey, t.PatientID).Result()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return fmt.Errorf("admitq/redis: check active patient: %w", err)
			}
			if existing != "" && existing != tID {
				return admitq.ErrDuplicateActive
			}
			pipe.HSet(ctx, activePatientsKey, t.PatientID, tID)
		} else {
			pipe.HDel(ctx, activePatientsKey, t.PatientID)
		}

		pipe.HSet(ctx, tokenKey(tID), tokenToMap(t))
		pipe.SAdd(ctx, tokenIDsKey, tID)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, shift := range b.Shifts {
		pipe.HSet(ctx, tokenKey(shift.ID.String()),
			"rank", strconv.Itoa(shift.Rank),
			"estimated_wait", strconv.Itoa(shift.EstimatedWait),
			"updated_at", now,
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("admitq/redis: apply batch: %w", err)
	}
	return nil
}

// GetToken retrieves a token by ID.
func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	return s.getTokenByKey(ctx, tokenKey(tokenID.String()))
}

// FindActiveByPatient returns the patient's active token, if any.
func (s *Store) FindActiveByPatient(ctx context.Context, patientID string) (*token.Token, error) {
	tID, err := s.client.HGet(ctx, activePatientsKey, patientID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, admitq.ErrTokenNotFound
		}
		return nil, fmt.Errorf("admitq/redis: find active token: %w", err)
	}
	return s.getTokenByKey(ctx, tokenKey(tID))
}

// ListTokens returns tokens matching opts. Enumerates the ID set and
// filters in memory, which is fine at queue scale.
func (s *Store) ListTokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error) {
	ids, err := s.client.SMembers(ctx, tokenIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: list tokens smembers: %w", err)
	}

	tokens := make([]*token.Token, 0, len(ids))
	for _, tID := range ids {
		t, getErr := s.getTokenByKey(ctx, tokenKey(tID))
		if getErr != nil {
			if errors.Is(getErr, admitq.ErrTokenNotFound) {
				continue
			}
			return nil, getErr
		}
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if opts.PatientID != "" && t.PatientID != opts.PatientID {
			continue
		}
		tokens = append(tokens, t)
	}

	if opts.Status == token.StatusActive {
		sort.Slice(tokens, func(i, j int) bool { return tokens[i].Rank < tokens[j].Rank })
	} else {
		sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.Before(tokens[j].CreatedAt) })
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(tokens) {
			return nil, nil
		}
		tokens = tokens[opts.Offset:]
	}
	if opts.Limit > 0 && len(tokens) > opts.Limit {
		tokens = tokens[:opts.Limit]
	}
	return tokens, nil
}

// MaxSequence returns the highest admission sequence ever assigned.
func (s *Store) MaxSequence(ctx context.Context) (uint64, error) {
	ids, err := s.client.SMembers(ctx, tokenIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("admitq/redis: max sequence smembers: %w", err)
	}

	var max uint64
	for _, tID := range ids {
		raw, getErr := s.client.HGet(ctx, tokenKey(tID), "sequence").Result()
		if getErr != nil {
			if errors.Is(getErr, goredis.Nil) {
				continue
			}
			return 0, fmt.Errorf("admitq/redis: max sequence hget: %w", getErr)
		}
		seq, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("admitq/redis: parse sequence %q: %w", raw, parseErr)
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (s *Store) getTokenByKey(ctx context.Context, key string) (*token.Token, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: get token: %w", err)
	}
	if len(vals) == 0 {
		return nil, admitq.ErrTokenNotFound
	}
	return mapToToken(vals)
}

// tokenToMap flattens a token into Redis Hash fields.
func tokenToMap(t *token.Token) map[string]any {
	return map[string]any{
		"id":             t.ID.String(),
		"number":         t.Number,
		"patient_id":     t.PatientID,
		"patient_name":   t.PatientName,
		"patient_phone":  t.PatientPhone,
		"priority_class": strconv.Itoa(int(t.Class)),
		"category":       t.Category,
		"status":         string(t.Status),
		"symptoms":       t.Symptoms,
		"rank":           strconv.Itoa(t.Rank),
		"estimated_wait": strconv.Itoa(t.EstimatedWait),
		"sequence":       strconv.FormatUint(t.Sequence, 10),
		"created_by":     t.CreatedBy,
		"created_at":     t.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// mapToToken rebuilds a token from Redis Hash fields.
func mapToToken(m map[string]string) (*token.Token, error) {
	tID, err := id.ParseTokenID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse token id: %w", err)
	}

	class, err := strconv.Atoi(m["priority_class"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse priority class: %w", err)
	}
	rank, err := strconv.Atoi(m["rank"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse rank: %w", err)
	}
	wait, err := strconv.Atoi(m["estimated_wait"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse estimated wait: %w", err)
	}
	seq, err := strconv.ParseUint(m["sequence"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse sequence: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, m["created_at"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, m["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("admitq/redis: parse updated_at: %w", err)
	}

	t := &token.Token{
		ID:            tID,
		Number:        m["number"],
		PatientID:     m["patient_id"],
		PatientName:   m["patient_name"],
		PatientPhone:  m["patient_phone"],
		Class:         token.PriorityClass(class),
		Category:      m["category"],
		Status:        token.Status(m["status"]),
		Symptoms:      m["symptoms"],
		Rank:          rank,
		EstimatedWait: wait,
		Sequence:      seq,
		CreatedBy:     m["created_by"],
	}
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return t, nil
}
