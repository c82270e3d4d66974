package main

import (
	"log"
	"os"
)

func main() {
	s := srv{}
	s.loadApp()

	if err := s.app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}
