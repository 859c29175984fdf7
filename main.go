package main

import "github.com/frahmantamala/shop-backoffice/cmd"

func main() {
	cmd.Execute()
}
