package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/veilledger/veil/api"
	"github.com/veilledger/veil/version"
)

// Gateway starts the local HTTP API server over the wallet.
type Gateway struct {
	NoCors bool `long:"nocors" description:"Disable CORS on the API server"`
}

// Execute starts the gateway and blocks until interrupted.
func (x *Gateway) Execute(args []string) error {
	r, w, cfg, err := loadWallet()
	if err != nil {
		return err
	}
	defer r.Close()

	listener, err := net.Listen("tcp", cfg.GatewayAddr)
	if err != nil {
		return err
	}

	g, err := api.NewGateway(w, &api.GatewayConfig{
		Listener: listener,
		NoCors:   x.NoCors,
	})
	if err != nil {
		return err
	}

	printSplashScreen()

	go func() {
		if err := g.Serve(); err != nil {
			log.Errorf("Gateway error: %s", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	log.Info("Veil wallet shutting down...")
	return g.Close()
}

func printSplashScreen() {
	blue := color.New(color.FgBlue)
	white := color.New(color.FgWhite)

	for i, l := range []string{
		`        .__.__   `,
		` ___  __|__|  |  `,
		` \  \/ /  |  |   `,
		`  \   /|  |  |__ `,
		`   \_/ |__|____/ `,
	} {
		if i%2 == 0 {
			if _, err := white.Println(l); err != nil {
				log.Debug(err)
				return
			}
			continue
		}
		if _, err := blue.Println(l); err != nil {
			log.Debug(err)
			return
		}
	}

	blue.DisableColor()
	white.DisableColor()
	fmt.Printf("\nveil wallet v%s\n", version.String())
}
