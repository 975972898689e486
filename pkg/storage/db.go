package storage

import (
	"context"
	"net"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type option struct {
	maxOpenConn     int
	maxIdleConn     int
	connMaxLifetime time.Duration
	logger          glogger.Interface
	cfg             *driver.Config
}

type Option func(*option)

func WithMaxOpenConn(maxOpenConn int) Option {
	return func(o *option) {
		o.maxOpenConn = maxOpenConn
	}
}

func WithMaxIdleConn(maxIdleConn int) Option {
	return func(o *option) {
		o.maxIdleConn = maxIdleConn
	}
}

func WithMaxLifetime(connMaxLifetime time.Duration) Option {
	return func(o *option) {
		o.connMaxLifetime = connMaxLifetime
	}
}

func WithLogger(logger glogger.Interface) Option {
	return func(o *option) {
		o.logger = logger
	}
}

func WithUser(user string) Option {
	return func(o *option) {
		o.cfg.User = user
	}
}

func WithPassword(password string) Option {
	return func(o *option) {
		o.cfg.Passwd = password
	}
}

// WithIP and WithPort build the tcp address of the server.
func WithIP(ip string) Option {
	return func(o *option) {
		_, port, _ := net.SplitHostPort(o.cfg.Addr)
		o.cfg.Addr = net.JoinHostPort(ip, port)
	}
}

func WithPort(port string) Option {
	return func(o *option) {
		host, _, _ := net.SplitHostPort(o.cfg.Addr)
		o.cfg.Addr = net.JoinHostPort(host, port)
	}
}

func WithDatabase(db string) Option {
	return func(o *option) {
		o.cfg.DBName = db
	}
}

func WithCharset(charset string) Option {
	return func(o *option) {
		o.cfg.Params["charset"] = charset
	}
}

func WithTimeout(dial, read, write time.Duration) Option {
	return func(o *option) {
		o.cfg.Timeout, o.cfg.ReadTimeout, o.cfg.WriteTimeout = dial, read, write
	}
}

func defaultOption() *option {
	cfg := driver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = "127.0.0.1:3306"
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return &option{
		maxOpenConn: 100,
		maxIdleConn: 80,
		logger:      glogger.Discard,
		cfg:         cfg,
	}
}

// Dsn renders the connection string New would use.
func Dsn(opts ...Option) string {
	o := defaultOption()
	for _, f := range opts {
		f(o)
	}
	return o.cfg.FormatDSN()
}

// New opens a pooled MySQL connection and pings it. Timestamps are written in UTC.
func New(ctx context.Context, opts ...Option) (*DB, error) {
	o := defaultOption()
	for _, f := range opts {
		f(o)
	}
	client, err := gorm.Open(
		mysql.New(mysql.Config{
			DSN:                  o.cfg.FormatDSN(),
			DisableWithReturning: true,
		}),
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{SingularTable: true},
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
			PrepareStmt: true,
			Logger:      o.logger,
		},
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sqlDB, err := client.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConn)
	sqlDB.SetMaxIdleConns(o.maxIdleConn)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.WithStack(err)
	}
	return &DB{DB: client}, nil
}

type DB struct {
	*gorm.DB
}

// Transaction runs fc in a transaction bound to ctx; a returned error or panic rolls back.
func (d *DB) Transaction(ctx context.Context, fc func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fc)
}

func (d *DB) Close() error {
	s, err := d.DB.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return s.Close()
}
