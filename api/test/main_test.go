package test

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/aneebrehman51/komugybynarumii/api"
	"github.com/aneebrehman51/komugybynarumii/api/background"
	"github.com/aneebrehman51/komugybynarumii/config"
	"github.com/aneebrehman51/komugybynarumii/database"
	"github.com/aneebrehman51/komugybynarumii/rate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
)

// TestEnv runs the full API against a disposable postgres container, with
// the proof uploader and the notification sink replaced by in-memory mocks.
type TestEnv struct {
	t *testing.T

	DB     *sqlx.DB
	URL    string
	Server *httptest.Server

	Uploads *mockUploader
	Mails   *mockMailer
	Shop    config.Shop

	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + resource.GetPort("5432/tcp"),
		Name:       name,
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		return nil, fmt.Errorf("waiting for postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	session := scs.New()
	session.Lifetime = time.Hour

	shop := config.Shop{
		PaymentAccountName:   "Komugy by Narumii",
		PaymentAccountNumber: "0300-1234567",
		PaymentWindow:        time.Hour,
		MaxProofBytes:        64 * 1024,
	}

	env := &TestEnv{
		t:       t,
		DB:      db,
		Uploads: newMockUploader(),
		Mails:   newMockMailer(),
		Shop:    shop,
	}

	mux := api.APIMux(api.APIConfig{
		Log:        log,
		DB:         db,
		Session:    session,
		Uploader:   env.Uploads,
		Mailer:     env.Mails,
		Background: background.New(log),
		Shop:       shop,
		AdminToken: "test-admin-token",
		Limiter:    rate.NewLimiter(1000, 100, rate.Every(time.Microsecond)),
	})

	env.Server = httptest.NewServer(mux)
	env.URL = env.Server.URL
	t.Cleanup(env.Server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}
	env.client = &http.Client{Jar: jar}

	return env, nil
}

// Client returns an HTTP client carrying the session cookie across requests.
func (env *TestEnv) Client() *http.Client {
	return env.client
}
