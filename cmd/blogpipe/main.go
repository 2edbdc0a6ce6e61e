package main

import (
	"blogpipe/cmd/handlers"
	"blogpipe/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
