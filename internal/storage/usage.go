package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UsageRecord is one handled command invocation.
type UsageRecord struct {
	TraceID        string
	Timestamp      time.Time
	UserID         string
	ChannelID      string
	GuildID        string
	IsDM           bool
	IsPrimaryGuild bool
	CommandType    string
	Command        string
	Status         string
	CompleteTime   time.Duration
}

// CommandCount is the number of invocations of one command.
type CommandCount struct {
	Command string
	Count   int
}

// RecordUsage stores rec.
func (s *Storage) RecordUsage(ctx context.Context, rec UsageRecord) error {
	if strings.TrimSpace(rec.TraceID) == "" {
		return errors.New("trace id is required")
	}
	if strings.TrimSpace(rec.Command) == "" {
		return errors.New("command is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO command_usage (
    trace_id, recorded_at, user_id, channel_id, guild_id, is_dm,
    is_primary_guild, command_type, command, status, complete_time_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID,
		rec.Timestamp.UTC().Format(timeFormat),
		rec.UserID,
		rec.ChannelID,
		rec.GuildID,
		rec.IsDM,
		rec.IsPrimaryGuild,
		rec.CommandType,
		rec.Command,
		rec.Status,
		rec.CompleteTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert usage %s: %w", rec.TraceID, err)
	}
	return nil
}

// RecentUsage returns the latest records of a guild, newest first. An
// empty guild id selects direct messages.
func (s *Storage) RecentUsage(ctx context.Context, guildID string, limit int) ([]UsageRecord, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT trace_id, recorded_at, user_id, channel_id, guild_id, is_dm,
       is_primary_guild, command_type, command, status, complete_time_ms
FROM command_usage
WHERE guild_id = ?
ORDER BY recorded_at DESC
LIMIT ?`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		var (
			rec      UsageRecord
			recorded string
			ms       int64
		)
		if err := rows.Scan(&rec.TraceID, &recorded, &rec.UserID, &rec.ChannelID, &rec.GuildID,
			&rec.IsDM, &rec.IsPrimaryGuild, &rec.CommandType, &rec.Command, &rec.Status, &ms); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		rec.Timestamp, err = time.Parse(timeFormat, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse usage time %q: %w", recorded, err)
		}
		rec.CompleteTime = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CommandCounts returns invocation counts per trigger, most used first.
// Parameters recorded with a command are ignored.
func (s *Storage) CommandCounts(ctx context.Context) ([]CommandCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT CASE WHEN instr(command, ' ') > 0
            THEN substr(command, 1, instr(command, ' ') - 1)
            ELSE command END AS trigger,
       COUNT(*) AS n
FROM command_usage
GROUP BY trigger
ORDER BY n DESC, trigger ASC`)
	if err != nil {
		return nil, fmt.Errorf("query command counts: %w", err)
	}
	defer rows.Close()

	var out []CommandCount
	for rows.Next() {
		var c CommandCount
		if err := rows.Scan(&c.Command, &c.Count); err != nil {
			return nil, fmt.Errorf("scan command count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
