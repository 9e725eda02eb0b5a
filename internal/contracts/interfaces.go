package contracts

import "context"

// PopulationSource yields the entities to score, in processing order.
// ⭐ SSOT: 배치 대상 모집단 인터페이스
type PopulationSource interface {
	ListEntities(ctx context.Context) ([]Entity, error)
}

// StatisticsSource supplies performance statistics keyed by its own identifier space.
// ⭐ SSOT: 외부 통계 소스 인터페이스
type StatisticsSource interface {
	Name() string
	FetchStatistics(ctx context.Context) ([]StatisticRecord, error)
}

// ScoreStore persists score records. UpsertScore must be a single atomic write
// keyed by entity id (last write wins).
// ⭐ SSOT: 점수 저장소 인터페이스
type ScoreStore interface {
	Ping(ctx context.Context) error
	UpsertScore(ctx context.Context, rec ScoreRecord) error
}

// ScoreReader is implemented by stores that can serve persisted scores back.
type ScoreReader interface {
	GetScore(ctx context.Context, entityID string) (*ScoreRecord, error)
	TopScores(ctx context.Context, limit int) ([]ScoreRecord, error)
}
