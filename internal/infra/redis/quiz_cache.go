package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches whole quizzes in Redis in front of another app.QuizRepository and
// falls back to it on a miss. Quizzes are stored as JSON: SET quiz:{quizID} {json} EX ttl.
// Writes go through, delete the key and bump quiz:{quizID}:gen; a load only fills the
// cache if that generation did not move while it ran. Cache failures are logged and
// never fail a read.
type QuizCache struct {
	app.QuizRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizCache(client *redis.Client, next app.QuizRepository, ttl time.Duration, log zerolog.Logger) *QuizCache {
	return &QuizCache{
		QuizRepository: next,
		client:         client,
		ttl:            ttl,
		log:            log.With().Str("component", "redis_quiz_cache").Logger(),
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.lookup(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.lookup(ctx, quizID); ok {
			return quiz, nil
		}

		gen, genErr := r.generation(ctx, quizID)
		quiz, err := r.QuizRepository.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if genErr != nil {
			r.log.Warn().Err(genErr).Str("quiz_id", quizID).Msg("cache generation read failed")
			return quiz, nil
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return quiz, nil
		}
		r.fill(ctx, quizID, gen, data)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := r.QuizRepository.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	r.invalidate(ctx, quiz.ID)
	return nil
}

func (r *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := r.QuizRepository.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	r.invalidate(ctx, quizID)
	return nil
}

func (r *QuizCache) lookup(ctx context.Context, quizID string) (domain.Quiz, bool) {
	data, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("quiz_id", quizID).Msg("cache read failed")
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		r.log.Warn().Err(err).Str("quiz_id", quizID).Msg("dropping undecodable cache entry")
		r.invalidate(ctx, quizID)
		return domain.Quiz{}, false
	}
	return quiz, true
}

var errStaleFill = errors.New("quiz changed during load")

func (r *QuizCache) generation(ctx context.Context, quizID string) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill writes the entry unless an invalidation bumped the generation since gen was read.
func (r *QuizCache) fill(ctx context.Context, quizID string, gen int64, data []byte) {
	genKey := r.genKey(quizID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(quizID), data, r.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		r.log.Debug().Str("quiz_id", quizID).Msg("skipping cache fill after invalidation")
	default:
		r.log.Warn().Err(err).Str("quiz_id", quizID).Msg("cache fill failed")
	}
}

func (r *QuizCache) invalidate(ctx context.Context, quizID string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.genKey(quizID))
		pipe.Expire(ctx, r.genKey(quizID), generationTTL)
		pipe.Del(ctx, r.key(quizID))
		return nil
	})
	if err != nil {
		r.log.Warn().Err(err).Str("quiz_id", quizID).Msg("cache invalidation failed")
	}
	r.sf.Forget(quizID)
}

// generationTTL bounds how long a generation counter outlives its last invalidation.
const generationTTL = 24 * time.Hour

func (r *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizCache) genKey(quizID string) string {
	return "quiz:" + quizID + ":gen"
}

func (r *QuizCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
