package main

import "github.com/frahmantamala/payweb-gateway/cmd"

func main() {
	cmd.Execute()
}
