package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL           string
	AccountingDatabaseURL string
	Port                  string
	IsProduction          bool
	JWTSecret             string

	// Ledger event queue
	EventPollInterval time.Duration
	EventBatchSize    int
	EventBackoffBase  time.Duration
	EventBackoffCap   time.Duration

	// Maintenance job queue
	JobPollInterval  time.Duration
	JobLeaseDuration time.Duration
	JobRequeueGrace  time.Duration
	JobMaxAttempts   int
	JobRetryStep     time.Duration
	JobRetryMax      time.Duration

	// Change synchronizer. Payments move money so their poll cadence is
	// tighter than the slow-changing property and user tables.
	SyncBackoffBase         time.Duration
	SyncBackoffCap          time.Duration
	SyncDiscardCeiling      int
	SyncBatchSize           int
	SyncPaymentPollInterval time.Duration
	SyncEntityPollInterval  time.Duration

	// Schedules (cron specs, UTC)
	ScheduleHourlySync       string
	ScheduleDailySync        string
	ScheduleWeeklyValidation string
	ScheduleMonthlyDeepSync  string
	ScheduleFailureReprocess string
	ScheduleFailureCleanup   string
	FailureRetentionDuration time.Duration
	ConsistencyLookbackDays  int
	RecentSyncLookbackWindow time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ACCOUNTING_PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")

	viper.SetDefault("EVENT_POLL_INTERVAL", "10s")
	viper.SetDefault("EVENT_BATCH_SIZE", 50)
	viper.SetDefault("EVENT_BACKOFF_BASE", "5s")
	viper.SetDefault("EVENT_BACKOFF_CAP", "10m")

	viper.SetDefault("JOB_POLL_INTERVAL", "15s")
	viper.SetDefault("JOB_LEASE_DURATION", "10m")
	viper.SetDefault("JOB_REQUEUE_GRACE", "30s")
	viper.SetDefault("JOB_MAX_ATTEMPTS", 5)
	viper.SetDefault("JOB_RETRY_STEP", "1m")
	viper.SetDefault("JOB_RETRY_MAX", "15m")

	viper.SetDefault("SYNC_BACKOFF_BASE", "1m")
	viper.SetDefault("SYNC_BACKOFF_CAP", "24h")
	viper.SetDefault("SYNC_DISCARD_CEILING", 20)
	viper.SetDefault("SYNC_BATCH_SIZE", 200)
	viper.SetDefault("SYNC_PAYMENT_POLL_INTERVAL", "10s")
	viper.SetDefault("SYNC_ENTITY_POLL_INTERVAL", "60s")

	viper.SetDefault("SCHEDULE_HOURLY_SYNC", "0 * * * *")
	viper.SetDefault("SCHEDULE_DAILY_SYNC", "30 2 * * *")
	viper.SetDefault("SCHEDULE_WEEKLY_VALIDATION", "0 4 * * 0")
	viper.SetDefault("SCHEDULE_MONTHLY_DEEP_SYNC", "0 3 1 * *")
	viper.SetDefault("SCHEDULE_FAILURE_REPROCESS", "*/10 * * * *")
	viper.SetDefault("SCHEDULE_FAILURE_CLEANUP", "15 3 * * *")
	viper.SetDefault("FAILURE_RETENTION_DURATION", "720h")
	viper.SetDefault("CONSISTENCY_LOOKBACK_DAYS", 7)
	viper.SetDefault("RECENT_SYNC_LOOKBACK_WINDOW", "2h")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.AccountingDatabaseURL = viper.GetString("ACCOUNTING_PGSQL_URL")
	if cfg.AccountingDatabaseURL == "" {
		log.Println("Warning: ACCOUNTING_PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.EventPollInterval = durationOrDefault("EVENT_POLL_INTERVAL", 10*time.Second)
	cfg.EventBatchSize = viper.GetInt("EVENT_BATCH_SIZE")
	cfg.EventBackoffBase = durationOrDefault("EVENT_BACKOFF_BASE", 5*time.Second)
	cfg.EventBackoffCap = durationOrDefault("EVENT_BACKOFF_CAP", 10*time.Minute)

	cfg.JobPollInterval = durationOrDefault("JOB_POLL_INTERVAL", 15*time.Second)
	cfg.JobLeaseDuration = durationOrDefault("JOB_LEASE_DURATION", 10*time.Minute)
	cfg.JobRequeueGrace = durationOrDefault("JOB_REQUEUE_GRACE", 30*time.Second)
	cfg.JobMaxAttempts = viper.GetInt("JOB_MAX_ATTEMPTS")
	cfg.JobRetryStep = durationOrDefault("JOB_RETRY_STEP", time.Minute)
	cfg.JobRetryMax = durationOrDefault("JOB_RETRY_MAX", 15*time.Minute)

	cfg.SyncBackoffBase = durationOrDefault("SYNC_BACKOFF_BASE", time.Minute)
	cfg.SyncBackoffCap = durationOrDefault("SYNC_BACKOFF_CAP", 24*time.Hour)
	cfg.SyncDiscardCeiling = viper.GetInt("SYNC_DISCARD_CEILING")
	cfg.SyncBatchSize = viper.GetInt("SYNC_BATCH_SIZE")
	cfg.SyncPaymentPollInterval = durationOrDefault("SYNC_PAYMENT_POLL_INTERVAL", 10*time.Second)
	cfg.SyncEntityPollInterval = durationOrDefault("SYNC_ENTITY_POLL_INTERVAL", 60*time.Second)

	cfg.ScheduleHourlySync = viper.GetString("SCHEDULE_HOURLY_SYNC")
	cfg.ScheduleDailySync = viper.GetString("SCHEDULE_DAILY_SYNC")
	cfg.ScheduleWeeklyValidation = viper.GetString("SCHEDULE_WEEKLY_VALIDATION")
	cfg.ScheduleMonthlyDeepSync = viper.GetString("SCHEDULE_MONTHLY_DEEP_SYNC")
	cfg.ScheduleFailureReprocess = viper.GetString("SCHEDULE_FAILURE_REPROCESS")
	cfg.ScheduleFailureCleanup = viper.GetString("SCHEDULE_FAILURE_CLEANUP")
	cfg.FailureRetentionDuration = durationOrDefault("FAILURE_RETENTION_DURATION", 30*24*time.Hour)
	cfg.ConsistencyLookbackDays = viper.GetInt("CONSISTENCY_LOOKBACK_DAYS")
	cfg.RecentSyncLookbackWindow = durationOrDefault("RECENT_SYNC_LOOKBACK_WINDOW", 2*time.Hour)

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
