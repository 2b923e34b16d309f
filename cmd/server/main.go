// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/unogo/unogo/internal/auth"
	"github.com/unogo/unogo/internal/database"
	"github.com/unogo/unogo/internal/handlers"
	"github.com/unogo/unogo/internal/middleware"
	"github.com/unogo/unogo/internal/statestore"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	rdb, err := statestore.Connect()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	store := statestore.NewStore(rdb)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)
	mux.HandleFunc("/user/claim", handlers.ClaimEphemeralHandler)

	// friend endpoints
	mux.HandleFunc("/friends/add", handlers.AddFriendHandler)
	mux.HandleFunc("/friends/accept", handlers.AcceptFriendHandler)
	mux.HandleFunc("/friends/list", handlers.ListFriendsHandler)
	mux.HandleFunc("/friends/remove", handlers.RemoveFriendHandler)

	gs := handlers.NewGameServer(logger, store)

	// game endpoints
	mux.Handle("/game/create", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.CreateGameHandler)))
	mux.Handle("/game/invite", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.InviteHandler)))
	mux.Handle("/game/invites", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.ListInvitesHandler)))
	mux.Handle("/game/invite/respond", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.RespondInviteHandler)))
	mux.Handle("/game/start", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.StartGameHandler)))
	mux.Handle("/game/state", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.GameStateHandler)))

	// matchmaking endpoints
	mux.Handle("/matchmaking/join", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.JoinMatchmakingHandler)))
	mux.Handle("/matchmaking/cancel", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.CancelMatchmakingHandler)))
	mux.Handle("/matchmaking/status", middleware.LogMiddleware(logger)(http.HandlerFunc(gs.MatchmakingStatusHandler)))

	// game websocket
	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, gs),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
