package main

import (
	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	"github.com/OFFIS-RIT/diagramkg/internal/server"
	"github.com/OFFIS-RIT/diagramkg/internal/util"
)

func main() {
	util.LoadEnv()
	bootstrap.InitLogger("server")

	server.Init()
}
