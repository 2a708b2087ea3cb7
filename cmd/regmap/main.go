package main

import "github.com/KevinKickass/OpenRegMap/cmd/regmap/cmd"

func main() {
	cmd.Execute()
}
