package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for WebSocket
	},
}

func wsHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}
		defer conn.Close()

		client := hub.Register(conn)
		defer hub.HandleDisconnect(client)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v\n", err)
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("unmarshal error: %v\n", err)
				continue
			}

			hub.HandleMessage(client, msg)
		}
	}
}

func setupRouter(hub *Hub) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.LoggerWithWriter(os.Stdout))

	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// WebSocket route
	router.GET("/ws", wsHandler(hub))

	// Browser client
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir("wwwroot"))))

	return router
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	hub := NewHub()
	go hub.runReaper()

	log.Println("🚀 Starting server on port " + port)

	router := setupRouter(hub)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
