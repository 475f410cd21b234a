package dutyctl

import (
	"context"
	"fmt"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	attendancestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/audit"
	memberstore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/members"
	schedulestore "github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/store/schedules"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Actor is the audit identity of CLI runs.
var Actor = auditlog.Actor{Name: "dutyctl"}

// Env is an open connection plus the services built over it.
type Env struct {
	Client    *mongo.Client
	Members   *memberstore.Store
	Schedules *schedulestore.Store
	Audit     *auditlog.Logger
	Service   *scheduling.Service
	Ledger    *scheduling.Ledger
}

// Open connects to MongoDB and builds the services.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger) (*Env, error) {
	epoch, err := cfg.Epoch()
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)

	members := memberstore.New(db)
	schedules := schedulestore.New(db)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Session: auditlog.Off,
		Changes: cfg.AuditLogChanges,
	})
	svc := scheduling.New(members, schedules, scheduling.Config{
		Order:   cfg.Order(),
		Epoch:   epoch,
		Retries: cfg.OverrideRetries,
	}, audits, nil, logger)
	ledger := scheduling.NewLedger(members, attendancestore.New(db), cfg.Attendance(),
		svc.Sorter(), cfg.OverrideRetries, audits, nil, logger)

	return &Env{
		Client:    client,
		Members:   members,
		Schedules: schedules,
		Audit:     audits,
		Service:   svc,
		Ledger:    ledger,
	}, nil
}

// Close disconnects from MongoDB.
func (e *Env) Close(ctx context.Context) error {
	return e.Client.Disconnect(ctx)
}
