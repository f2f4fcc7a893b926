package main

import "quizfeed/cmd/handlers"

func main() {
	handlers.Execute()
}
