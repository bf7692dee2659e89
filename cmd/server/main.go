package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"crisis-service/config"
	"crisis-service/internal/api"
	"crisis-service/internal/broadcast"
	"crisis-service/internal/crisis"
	"crisis-service/internal/dispatch"
	"crisis-service/internal/geo"
	"crisis-service/internal/shelter"
	"crisis-service/internal/sos"
	"crisis-service/internal/team"
	"crisis-service/internal/user"
	"crisis-service/pkg/consul"
	"crisis-service/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	consulConn := consul.NewConsulConn(zlog, cfg)
	consulConn.Connect()
	defer consulConn.Deregister()

	mongoClient, err := connectToMongoDB(cfg.MongoURI)
	if err != nil {
		zlog.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			zlog.Fatal(err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB)

	broadcaster := broadcast.NewBroadcaster(64, zlog)
	teamIndex := geo.NewIndex()
	shelterIndex := geo.NewIndex()
	userIndex := geo.NewIndex()

	sosRepository := sos.NewSOSRepository(db.Collection("sos"))
	teamRepository := team.NewTeamRepository(db.Collection("teams"))
	shelterRepository := shelter.NewShelterRepository(db.Collection("shelters"))
	crisisRepository := crisis.NewCrisisRepository(db.Collection("crises"))
	userRepository := user.NewUserRepository(db.Collection("users"))

	warmGeoIndexes(zlog, teamIndex, shelterIndex, userIndex, teamRepository, shelterRepository, userRepository)

	matcher := dispatch.NewMatcher(teamIndex, shelterIndex, teamRepository, shelterRepository,
		cfg.DispatchMaxRadiusMeters, zlog)

	sosService := sos.NewSOSService(sosRepository, teamRepository, broadcaster, zlog)
	teamService := team.NewTeamService(teamRepository, teamIndex, broadcaster, zlog)
	shelterService := shelter.NewShelterService(shelterRepository, shelterIndex, broadcaster, zlog)
	crisisService := crisis.NewCrisisService(crisisRepository, broadcaster, zlog)
	userService := user.NewUserService(userRepository, userIndex)

	handlers := &api.Handlers{
		SOS:     sos.NewSOSHandler(sosService, matcher),
		Team:    team.NewTeamHandler(teamService),
		Shelter: shelter.NewShelterHandler(shelterService),
		Crisis:  crisis.NewCrisisHandler(crisisService),
		User:    user.NewUserHandler(userService),
		Stream:  broadcast.NewStreamHandler(broadcaster, zlog),
	}

	router := api.NewRouter(cfg, handlers)

	// Periodic statistics snapshot on the global feed.
	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.StatsBroadcastSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stats, err := sosService.GetStatistics(ctx, nil)
		if err != nil {
			zlog.Errorf("Statistics broadcast failed: %v", err)
			return
		}
		broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindStatistics, "", stats)
	})
	if err != nil {
		zlog.Fatalf("AddFunc error: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Fatalf("Error shutting down server: %v", err)
	}
	zlog.Info("Server stopped")
}

func connectToMongoDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Println("Failed to connect to MongoDB")
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Println("Failed to ping MongoDB")
		return nil, err
	}

	log.Println("Successfully connected to MongoDB")
	return client, nil
}

// warmGeoIndexes seeds the in-memory indexes from persisted records so the
// dispatch matcher sees teams and shelters that registered before this
// process started.
func warmGeoIndexes(zlog *zap.SugaredLogger, teamIndex, shelterIndex, userIndex *geo.Index,
	teams team.TeamRepository, shelters shelter.ShelterRepository, users user.UserRepository) {

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	allTeams, err := teams.FindAll(ctx, "")
	if err != nil {
		zlog.Errorf("Failed to warm team index: %v", err)
	}
	for _, t := range allTeams {
		if t.Status == team.StatusOffline {
			continue
		}
		if err := teamIndex.Upsert(t.ID.Hex(), t.Location.Point()); err != nil {
			zlog.Warnf("Skipping team %s with bad location: %v", t.ID.Hex(), err)
		}
	}

	allShelters, err := shelters.FindAll(ctx, "")
	if err != nil {
		zlog.Errorf("Failed to warm shelter index: %v", err)
	}
	for _, sh := range allShelters {
		if sh.Status == shelter.StatusClosed || sh.Status == shelter.StatusMaintenance {
			continue
		}
		if err := shelterIndex.Upsert(sh.ID.Hex(), sh.Location.Point()); err != nil {
			zlog.Warnf("Skipping shelter %s with bad location: %v", sh.ID.Hex(), err)
		}
	}

	allUsers, err := users.FindAll(ctx, "")
	if err != nil {
		zlog.Errorf("Failed to warm user index: %v", err)
	}
	for _, u := range allUsers {
		if u.Location == nil {
			continue
		}
		if err := userIndex.Upsert(u.ID.Hex(), u.Location.Point()); err != nil {
			zlog.Warnf("Skipping user %s with bad location: %v", u.ID.Hex(), err)
		}
	}

	zlog.Infof("Warmed geo indexes: %d teams, %d shelters, %d users",
		teamIndex.Len(), shelterIndex.Len(), userIndex.Len())
}
