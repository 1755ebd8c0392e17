package main

import (
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
