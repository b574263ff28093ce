package main

import (
	"context"
	"log"

	"github.com/LJTian/OpportunityHub/internal/app"
	"github.com/LJTian/OpportunityHub/internal/config"
	"github.com/LJTian/OpportunityHub/internal/scheduler"
	"github.com/joho/godotenv"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer a.Close()

	// 只执行一轮采集任务后退出
	rep, err := a.Scheduler.RunOnce(context.Background(), scheduler.TriggerOnDemand)
	if err != nil {
		log.Printf("collect failed: %v", err)
		return
	}
	log.Printf("collect %s: fetched=%d new=%d delivered=%d failed=%d ledgerErrors=%d",
		rep.Outcome, rep.Fetched, rep.NetNew, rep.Delivered, rep.Failed, rep.LedgerErrors)
}
