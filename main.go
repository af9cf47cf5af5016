package main

import (
	"log"

	"github.com/sablehttp/sable/http"
)

func main() {
	server := http.NewServer(http.Options{Name: "sable"})

	server.GET("/hello", func(req *http.Request, res *http.Response) {
		res.WithText("hello world")
	})

	if !server.Run("0.0.0.0", 8080) {
		log.Fatal("sable: failed to start")
	}
}
