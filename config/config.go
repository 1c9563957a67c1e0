package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ndhu-booking/room-booking-server/models"
)

type Config struct {
	Port   string `envconfig:"PORT" default:"8080"`
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres | memory
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"room_booking"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBTimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Taipei"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	LoginTokenTTL   time.Duration `envconfig:"LOGIN_TOKEN_TTL" default:"10m"`
	SessionTokenTTL time.Duration `envconfig:"SESSION_TOKEN_TTL" default:"24h"`
	VerifyTokenTTL  time.Duration `envconfig:"VERIFY_TOKEN_TTL" default:"24h"`

	EmailDomain string   `envconfig:"EMAIL_DOMAIN" default:"gms.ndhu.edu.tw"`
	FrontendURL string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	TurnstileSecret string `envconfig:"TURNSTILE_SECRET"`

	MailProvider         string `envconfig:"MAIL_PROVIDER" default:"log"` // log | http | gmail
	MailAPIURL           string `envconfig:"MAIL_API_URL" default:"https://api.resend.com/emails"`
	MailAPIKey           string `envconfig:"MAIL_API_KEY"`
	MailFrom             string `envconfig:"MAIL_FROM" default:"Room Booking <no-reply@gms.ndhu.edu.tw>"`
	GmailCredentialsFile string `envconfig:"GMAIL_CREDENTIALS_FILE"`

	SupabaseURL    string `envconfig:"SUPABASE_URL"`
	SupabaseKey    string `envconfig:"SUPABASE_KEY"`
	SupabaseBucket string `envconfig:"SUPABASE_BUCKET" default:"exports"`
	ExportDir      string `envconfig:"EXPORT_DIR" default:"./exports"`

	// BOOTSTRAP_ADMINS=email:name,email:name tạo admin đầu tiên khi bảng admins còn trống.
	BootstrapAdmins []string `envconfig:"BOOTSTRAP_ADMINS"`

	IntakePerMinute int `envconfig:"INTAKE_RATE_PER_MIN" default:"10"`
	LoginPerMinute  int `envconfig:"LOGIN_RATE_PER_MIN" default:"5"`
}

// Load đọc .env (nếu có) rồi nạp biến môi trường vào Config.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.IsProduction() && strings.TrimSpace(cfg.TurnstileSecret) == "" {
		return nil, fmt.Errorf("TURNSTILE_SECRET is required when APP_ENV=production")
	}
	if _, err := cfg.AdminSeeds(); err != nil {
		return nil, err
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "memory" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", cfg.DBDriver)
	}
	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))
	return &cfg, nil
}

// AdminSeed là một admin khai báo qua BOOTSTRAP_ADMINS.
type AdminSeed struct {
	Email string
	Name  string
}

// AdminSeeds tách BOOTSTRAP_ADMINS thành danh sách email + tên.
func (c *Config) AdminSeeds() ([]AdminSeed, error) {
	seeds := make([]AdminSeed, 0, len(c.BootstrapAdmins))
	for _, entry := range c.BootstrapAdmins {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		email, name, ok := strings.Cut(entry, ":")
		email, name = strings.TrimSpace(email), strings.TrimSpace(name)
		if !ok || email == "" || name == "" {
			return nil, fmt.Errorf("BOOTSTRAP_ADMINS entry %q must be email:name", entry)
		}
		seeds = append(seeds, AdminSeed{Email: email, Name: name})
	}
	return seeds, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AdminURL là trang duyệt đơn phía frontend.
func (c *Config) AdminURL() string {
	return strings.TrimRight(c.FrontendURL, "/") + "/admin"
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

// Chỉ một slot confirmed cho mỗi (phòng, ngày, giờ bắt đầu).
const confirmedSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_slots_confirmed
	ON slots (room_id, date, start_time) WHERE status = 'confirmed'`

// ConnectDB khởi tạo kết nối PostgreSQL và migrate bảng
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Room{},
		&models.Application{},
		&models.Slot{},
		&models.Admin{},
		&models.LoginChallenge{},
		&models.RevokedToken{},
		&models.ExportJob{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if err := db.Exec(confirmedSlotIndex).Error; err != nil {
		return nil, fmt.Errorf("create confirmed slot index: %w", err)
	}
	return db, nil
}

// ConnectReadDB mở pool sqlx (lib/pq) dùng cho truy vấn lịch tuần.
func ConnectReadDB(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect read pool: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
