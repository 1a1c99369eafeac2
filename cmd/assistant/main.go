package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/backend"
	"github.com/vietvo371/wopai-assistant/internal/models"
	"github.com/vietvo371/wopai-assistant/internal/notify"
	"github.com/vietvo371/wopai-assistant/internal/preferences"
	"github.com/vietvo371/wopai-assistant/internal/session"
	"github.com/vietvo371/wopai-assistant/internal/storage"
	"github.com/vietvo371/wopai-assistant/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize local storage
	var store storage.Store
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
	case "redis":
		logger.Info("Using Redis storage")
		store, err = storage.NewRedisStore(storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStore()
	}
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Pick the assistant backend: platform API when configured,
	// otherwise talk to OpenAI directly.
	var assistant backend.Assistant
	if cfg.Assistant.BaseURL != "" {
		assistant = backend.NewHTTPClient(cfg.Assistant.BaseURL, cfg.Assistant.Token, logger)
	} else {
		logger.Info("No assistant backend configured, using OpenAI directly")
		assistant = backend.NewOpenAIAssistant(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			logger,
		)
	}

	notifier := notify.NewLogNotifier(logger)
	prefs := preferences.NewStore(assistant, notifier, store, logger)
	sess := session.New(assistant, prefs, store, notifier, logger)
	sess.Load(context.Background())

	runREPL(sess, prefs)
}

func runREPL(sess *session.Session, prefs *preferences.Store) {
	fmt.Println("Xin chào! 👋 Tôi là trợ lý phim thông minh.")
	fmt.Println("Gõ /help để xem các lệnh.")

	// Movies shown in the last structured reply, addressable by /like.
	var lastMovies []models.ExtractedMovie

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(line, sess, prefs, lastMovies); quit {
				return
			}
			continue
		}

		turn, err := sess.Send(context.Background(), line)
		if errors.Is(err, session.ErrBusy) {
			fmt.Println("Đang chờ phản hồi, vui lòng đợi...")
			continue
		}
		if err != nil {
			fmt.Println("⚠️ Không gửi được tin nhắn. Hãy thử lại.")
			continue
		}

		if turn.IsStructured {
			cls := sess.Interpret(*turn)
			if cls.Headline != "" {
				fmt.Println("== " + cls.Headline + " ==")
			}
			if cls.Lead != "" {
				fmt.Println(cls.Lead)
			}
			lastMovies = sess.MoviesFor(turn.ID)
			for i, movie := range lastMovies {
				printMovie(i+1, movie, prefs.IsLiked(movie.ID))
			}
		} else {
			fmt.Println(turn.Text)
		}
	}
}

func handleCommand(line string, sess *session.Session, prefs *preferences.Store, lastMovies []models.ExtractedMovie) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true
	case "/help":
		fmt.Println(`Các lệnh:
/mode catalog|billing - đổi chế độ trợ lý
/like <số>            - thích/bỏ thích phim trong danh sách gần nhất
/prefs                - xem sở thích đã lưu
/reset                - xóa hội thoại và sở thích
/quit                 - thoát`)
	case "/mode":
		if len(fields) > 1 && fields[1] == "billing" {
			sess.SwitchMode(models.ModeBilling)
		} else {
			sess.SwitchMode(models.ModeCatalog)
		}
		turns := sess.Turns()
		if len(turns) > 0 {
			fmt.Println(turns[len(turns)-1].Text)
		}
	case "/like":
		if len(fields) < 2 {
			fmt.Println("Dùng: /like <số>")
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(lastMovies) {
			fmt.Println("Không có phim số đó trong danh sách gần nhất.")
			break
		}
		movie := lastMovies[n-1]
		if prefs.ToggleLike(movie) {
			fmt.Printf("❤️ Đã thích: %s\n", movie.Title)
		} else {
			fmt.Printf("🤍 Đã bỏ thích: %s\n", movie.Title)
		}
	case "/prefs":
		printPreferences(prefs)
	case "/reset":
		sess.Reset()
		fmt.Println("Đã xóa hội thoại và sở thích.")
	default:
		fmt.Println("Lệnh không hợp lệ. Gõ /help để xem các lệnh.")
	}
	return false
}

func printMovie(index int, movie models.ExtractedMovie, liked bool) {
	badge := ""
	if liked {
		badge = " ❤️"
	}
	fmt.Printf("%d. %s%s\n", index, movie.Title, badge)

	var meta []string
	if movie.Year != "" {
		meta = append(meta, movie.Year)
	}
	if movie.Genre != "" {
		meta = append(meta, movie.Genre)
	}
	if movie.FilmType != "" {
		meta = append(meta, movie.FilmType)
	}
	if len(meta) > 0 {
		fmt.Println("   " + strings.Join(meta, " | "))
	}
	if movie.Summary != "" {
		fmt.Println("   " + movie.Summary)
	}
	if movie.Slug != "" {
		fmt.Println("   Xem: /detail/" + movie.Slug)
	} else if movie.ExternalLink != "" {
		fmt.Println("   Xem: " + movie.ExternalLink)
	}
}

func printPreferences(prefs *preferences.Store) {
	state := prefs.Snapshot()
	if len(state.Genres) > 0 {
		fmt.Println("Thể loại yêu thích: " + strings.Join(state.Genres, ", "))
	}
	if len(state.FilmTypes) > 0 {
		fmt.Println("Loại phim: " + strings.Join(state.FilmTypes, ", "))
	}
	if len(state.LikedMovieIDs) > 0 {
		labels := make([]string, len(state.LikedMovieIDs))
		for i, id := range state.LikedMovieIDs {
			labels[i] = prefs.LabelFor(id)
		}
		fmt.Println("Phim đã thích: " + strings.Join(labels, ", "))
	}
	if len(state.Genres) == 0 && len(state.FilmTypes) == 0 && len(state.LikedMovieIDs) == 0 {
		fmt.Println("Chưa có sở thích nào được lưu.")
	}
}
