package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/contentmux/app_config"
	"github.com/Luismorlan/contentmux/content"
	"github.com/Luismorlan/contentmux/eventbus"
	"github.com/Luismorlan/contentmux/feed"
	"github.com/Luismorlan/contentmux/listener"
	"github.com/Luismorlan/contentmux/notification"
	"github.com/Luismorlan/contentmux/reaction"
	"github.com/Luismorlan/contentmux/reporter"
	"github.com/Luismorlan/contentmux/search"
	"github.com/Luismorlan/contentmux/series"
	"github.com/Luismorlan/contentmux/server"
	"github.com/Luismorlan/contentmux/tagcount"
	"github.com/Luismorlan/contentmux/utils"
	"github.com/Luismorlan/contentmux/utils/dotenv"
	. "github.com/Luismorlan/contentmux/utils/flag"
	. "github.com/Luismorlan/contentmux/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func NewDogStatsdClient() *statsd.Client {
	addr := os.Getenv("DD_AGENT_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8125"
	}
	client, err := statsd.New(addr)
	if err != nil {
		panic(err)
	}
	return client
}

func main() {
	ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	// env is loaded now, rebuild the logger so that the prod hook is attached
	InitLogger()

	appConfig, err := app_config.ParseEngineAppConfig(*AppConfigPath)
	if err != nil {
		Log.Fatal(err)
	}

	utils.StartTracer()
	defer utils.CloseTracer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	redisClient, err := utils.GetRedisClient(ctx)
	if err != nil {
		Log.Fatal("fail to connect to redis: ", err)
	}
	defer redisClient.Close()

	statsdClient := NewDogStatsdClient()
	defer statsdClient.Close()

	// Notifications leave the process through watermill. The in-memory
	// channel is drained by a logging consumer until a broker is configured.
	notificationBus := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	defer notificationBus.Close()
	go notification.Consume(ctx, notificationBus, appConfig.NOTIFICATION_TOPIC, func(n notification.Notification) error {
		Log.WithField("event", n.EventName).WithField("key", n.Key).Debug("notification delivered")
		return nil
	})

	dispatcher := eventbus.NewDispatcher(reporter.NewStatsdReporter(statsdClient))
	reactionRepo := reaction.NewGormRepository(db)
	feeds := feed.NewRedisFanoutPublisher(redisClient, appConfig.FEED_MAX_LENGTH)
	listeners := &listener.Listeners{
		Bus:           dispatcher,
		Contents:      content.NewRepository(db),
		Series:        series.NewStore(db),
		Search:        search.NewMeilisearchIndex(search.NewMeilisearchClient(os.Getenv("MEILISEARCH_HOST"), os.Getenv("MEILISEARCH_API_KEY")), appConfig.SEARCH_INDEX_NAME),
		Feed:          feeds,
		Tags:          tagcount.NewGormTagCounters(db),
		Notifications: notification.NewWatermillPublisher(notificationBus, appConfig.NOTIFICATION_TOPIC),
		Reactions:     reactionRepo,
	}
	listeners.Register(dispatcher)
	dispatcher.Seal()

	handlers := &server.Handlers{
		Reactions: reaction.NewLedger(reactionRepo, reaction.NewGormTargetResolver(db), dispatcher, reaction.Config{
			MaxAttempts:    appConfig.REACTION_MAX_ATTEMPTS,
			LimitPerTarget: appConfig.REACTION_LIMIT_PER_TARGET,
		}),
		Contents: content.NewService(db, dispatcher),
		Series:   series.NewService(db, dispatcher),
		Feeds:    feeds,
	}
	router := server.NewRouter(handlers, cors.Default(), gintrace.Middleware(*ServiceName))

	srv := &http.Server{Addr: appConfig.HTTP_ADDR, Handler: router}
	go func() {
		Log.Info("api server starts up on ", appConfig.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Log.Fatal("api server stopped: ", err)
		}
	}()

	<-ctx.Done()
	Log.Info("shutting down api server")

	timeout := time.Duration(appConfig.SHUTDOWN_TIMEOUT_SECOND) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Log.Error("fail to shut down api server gracefully: ", err)
	}

	drained := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		Log.Warn("detached side effects still running at shutdown")
	}
	Log.Info("api server shutdown")
}
