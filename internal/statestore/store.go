package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists game records in Redis as full-record reads and writes, the
// way any subscribed client sees them. A write is accepted only if the stored
// version still matches the version the writer read at, so racing writers
// lose loudly instead of silently clobbering each other. Every accepted
// write publishes an invalidation that subscribers use to refresh mirrors.
type Store struct {
	rdb *redis.Client
}

var (
	// ErrNotFound means no record exists for the game id.
	ErrNotFound = errors.New("game record not found")

	// ErrStaleWrite means another client wrote the record after this
	// client's last read; the caller must refresh its mirror and retry the
	// decision, not the write.
	ErrStaleWrite = errors.New("game record changed since read")

	// ErrExists rejects creating a game id twice.
	ErrExists = errors.New("game record already exists")
)

// NewStore wraps an existing Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect initializes a Redis client from REDIS_ADDR and REDIS_DB and pings
// it with a short timeout.
func Connect() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	db := getEnvInt("REDIS_DB", 0)
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *Store) keyGame(id uuid.UUID) string        { return "game:" + id.String() }
func (s *Store) keySeat(id uuid.UUID, n int) string { return fmt.Sprintf("game:%s:seat:%d", id, n) }
func (s *Store) channelName(id uuid.UUID) string    { return "game:" + id.String() + ":sync" }

// Create stores a brand-new game at version 1 and announces it. Fails with
// ErrExists if the id is already taken.
func (s *Store) Create(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot for game %s: %w", snap.Game.ID, err)
	}
	snap.Game.Version = 1

	gameRaw, err := json.Marshal(&snap.Game)
	if err != nil {
		return fmt.Errorf("marshal game record: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, s.keyGame(snap.Game.ID), gameRaw, 0).Result()
	if err != nil {
		return fmt.Errorf("create game %s: %w", snap.Game.ID, err)
	}
	if !ok {
		return ErrExists
	}

	pipe := s.rdb.Pipeline()
	for i := range snap.Seats {
		seatRaw, err := json.Marshal(&snap.Seats[i])
		if err != nil {
			return fmt.Errorf("marshal seat record: %w", err)
		}
		pipe.Set(ctx, s.keySeat(snap.Game.ID, snap.Seats[i].Seat), seatRaw, 0)
	}
	pipe.Publish(ctx, s.channelName(snap.Game.ID), strconv.FormatInt(snap.Game.Version, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create seats for game %s: %w", snap.Game.ID, err)
	}
	return nil
}

// Load reads the full record set for a game and validates it at the
// boundary, so a corrupted record never reaches the engine.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.keyGame(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap.Game); err != nil {
		return nil, fmt.Errorf("decode game record %s: %w", id, err)
	}

	snap.Seats = make([]SeatRecord, 0, snap.Game.SeatCount)
	for n := 0; n < snap.Game.SeatCount; n++ {
		seatRaw, err := s.rdb.Get(ctx, s.keySeat(id, n)).Bytes()
		if err == redis.Nil {
			return nil, fmt.Errorf("game %s: %w (seat %d)", id, ErrNotFound, n)
		}
		if err != nil {
			return nil, fmt.Errorf("load seat %d of game %s: %w", n, id, err)
		}
		var seat SeatRecord
		if err := json.Unmarshal(seatRaw, &seat); err != nil {
			return nil, fmt.Errorf("decode seat %d of game %s: %w", n, id, err)
		}
		snap.Seats = append(snap.Seats, seat)
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("game %s failed validation on load: %w", id, err)
	}
	return &snap, nil
}

// Write overwrites the whole record set, but only if the stored version still
// equals the version the snapshot was read at. On success the version is
// bumped (also on the passed snapshot) and an invalidation is published; on a
// lost race it returns ErrStaleWrite and writes nothing.
func (s *Store) Write(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot for game %s: %w", snap.Game.ID, err)
	}

	key := s.keyGame(snap.Game.ID)
	readVersion := snap.Game.Version

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var stored GameRecord
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("decode stored game record: %w", err)
		}
		if stored.Version != readVersion {
			return ErrStaleWrite
		}

		next := snap.Game
		next.Version = readVersion + 1
		gameRaw, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal game record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameRaw, 0)
			for i := range snap.Seats {
				seatRaw, err := json.Marshal(&snap.Seats[i])
				if err != nil {
					return err
				}
				pipe.Set(ctx, s.keySeat(snap.Game.ID, snap.Seats[i].Seat), seatRaw, 0)
			}
			pipe.Publish(ctx, s.channelName(snap.Game.ID), strconv.FormatInt(next.Version, 10))
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txn, key)
	if err == redis.TxFailedErr {
		// Lost the WATCH race to a concurrent writer.
		return ErrStaleWrite
	}
	if err != nil {
		if errors.Is(err, ErrStaleWrite) || errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("write game %s: %w", snap.Game.ID, err)
	}
	snap.Game.Version = readVersion + 1
	return nil
}

// Subscription delivers the version number of each accepted write. Receivers
// treat it purely as an invalidation signal and re-read the record.
type Subscription struct {
	pubsub *redis.PubSub
	C      <-chan int64
}

// Close tears down the underlying Redis subscription; C is closed after.
func (sub *Subscription) Close() error {
	return sub.pubsub.Close()
}

// Subscribe starts listening for write notifications on a game. The returned
// channel is buffered; a slow receiver coalesces naturally since any version
// it observes prompts a fresh read of the latest record.
func (s *Store) Subscribe(ctx context.Context, id uuid.UUID) *Subscription {
	pubsub := s.rdb.Subscribe(ctx, s.channelName(id))
	out := make(chan int64, 16)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			v, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				continue
			}
			select {
			case out <- v:
			default:
				// Receiver is behind; drop, the next read catches up.
			}
		}
	}()

	return &Subscription{pubsub: pubsub, C: out}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
