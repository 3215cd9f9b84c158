package main

import (
	"gdelttrends/cmd/cmd"
	"gdelttrends/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
