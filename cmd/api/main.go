package main

import (
	"log"

	"github.com/LJTian/OpportunityHub/internal/api"
	"github.com/LJTian/OpportunityHub/internal/app"
	"github.com/LJTian/OpportunityHub/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 本地开发可以用 .env，线上直接读环境变量
	_ = godotenv.Load()

	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer a.Close()

	if cfg.DeliveryTarget == "" {
		log.Println("warn: DELIVERY_TARGET not set, cycles are no-ops until PUT /api/v1/target")
	}

	a.Scheduler.Start()
	defer a.Scheduler.Stop()

	r := gin.Default()
	api.NewServer(a.Scheduler, a.Ledger).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Printf("server exit: %v", err)
	}
}
