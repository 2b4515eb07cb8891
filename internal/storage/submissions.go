package storage

import (
	"context"
	"time"
)

func (s *Store) AddSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO submissions (
			id, guild_id, user_id, username, host_username, event_type, event_time,
			proof_url, proof_host, channel_id, message_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		sub.ID,
		sub.GuildID,
		sub.UserID,
		sub.Username,
		sub.HostUsername,
		sub.EventType,
		sub.EventTime,
		sub.ProofURL,
		sub.ProofHost,
		sub.ChannelID,
		sub.MessageID,
		sub.CreatedAt.Unix(),
	)
	return err
}

func (s *Store) ListSubmissions(ctx context.Context, since time.Time) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, guild_id, user_id, username, host_username, event_type, event_time,
			proof_url, proof_host, channel_id, message_id, created_at
		FROM submissions
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`), since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var created int64
		if err := rows.Scan(
			&sub.ID,
			&sub.GuildID,
			&sub.UserID,
			&sub.Username,
			&sub.HostUsername,
			&sub.EventType,
			&sub.EventTime,
			&sub.ProofURL,
			&sub.ProofHost,
			&sub.ChannelID,
			&sub.MessageID,
			&created,
		); err != nil {
			return nil, err
		}
		sub.CreatedAt = time.Unix(created, 0)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) CountSubmissionsByType(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT event_type, COUNT(*)
		FROM submissions
		WHERE created_at >= ?
		GROUP BY event_type
	`), since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}
