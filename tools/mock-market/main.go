// Package main implements a mock sneaker marketplace for local development.
// It serves product-detail pages from HTML fixtures behind a cookie-based
// login, so the scraper can be exercised without real marketplace
// credentials. An optional drift mode lowers every listed price on each
// page load to trigger price-change notifications.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const sessionCookie = "mock-market-session"

var rePrice = regexp.MustCompile(`¥\s*([\d,]+)`)

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	fixtureDir := flag.String("fixtures", "tools/mock-market/testdata", "directory of product HTML fixtures")
	drift := flag.Int("drift", 0, "yen subtracted from every price on each page load")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := &server{
		logger:     logger,
		fixtureDir: *fixtureDir,
		drift:      *drift,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", srv.login)
	mux.HandleFunc("GET /products/{id}", srv.product)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace", "addr", addr, "fixtures", *fixtureDir, "drift", *drift)

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type server struct {
	logger     *slog.Logger
	fixtureDir string
	drift      int

	loads atomic.Int64
}

// login accepts any non-empty email/password pair and hands out a session
// cookie, matching the form login the real site uses.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		s.logger.Warn("login rejected", "email", email)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: "session-" + strconv.FormatInt(time.Now().UnixNano(), 16),
		Path:  "/",
	})
	w.WriteHeader(http.StatusOK)
	s.logger.Info("issued session", "email", email)
}

// product serves the fixture for one product ID. Requests without a
// session cookie get 401, which exercises the scraper's re-login path.
func (s *server) product(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(sessionCookie); err != nil {
		http.Error(w, "login required", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if strings.ContainsAny(id, "/\\.") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.fixtureDir, id+".html")
	data, err := os.ReadFile(path) //nolint:gosec // fixture dir from trusted CLI flag
	if err != nil {
		s.logger.Warn("fixture not found", "id", id)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	page := string(data)
	if s.drift > 0 {
		total := int(s.loads.Add(1)) * s.drift
		page = lowerPrices(page, total)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte(page))
	s.logger.Debug("served product", "id", id)
}

// lowerPrices subtracts delta yen from every price in the page, flooring
// at 1000 so sizes never look free.
func lowerPrices(page string, delta int) string {
	return rePrice.ReplaceAllStringFunc(page, func(match string) string {
		digits := strings.NewReplacer(",", "", "¥", "", " ", "").Replace(match)
		price, err := strconv.Atoi(digits)
		if err != nil {
			return match
		}
		price -= delta
		if price < 1000 {
			price = 1000
		}
		return "¥" + formatThousands(price)
	})
}

func formatThousands(n int) string {
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
