package main

import "talent/internal/app/server"

func main() {
	server.Run()
}
