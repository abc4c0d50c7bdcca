package main

import (
	"fmt"

	"github.com/echo-chat/relay-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
