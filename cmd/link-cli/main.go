// link-cli is a ground side console: frames commands from the mission
// database and prints decoded telemetry.
package main

import (
	"encoding/hex"
	"flag"
	"io"
	"net"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/rdx-aegse/yamcs-link/config"
	"github.com/rdx-aegse/yamcs-link/frame"
	"github.com/rdx-aegse/yamcs-link/helpers"
	"github.com/rdx-aegse/yamcs-link/helpers/cli"
	"github.com/rdx-aegse/yamcs-link/internal/gcs"
	"github.com/rdx-aegse/yamcs-link/log2"
	"github.com/rdx-aegse/yamcs-link/schema"
)

const usage = `syntax: one command per line
- NAME ARGS...   send command, NAME is qualified, unique suffix or id
- send NAME ARGS...
- raw XX...      send raw bytes from hex
- list           show commands from mission database
- help
`

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "", "link config, framing and addresses")
	mdbPath := cmdline.String("mdb", "mdb/"+schema.YAMLFile, "mission database")
	tcAddr := cmdline.String("tc", "", "link command address, default from config")
	tmAddr := cmdline.String("tm", "", "telemetry listen address, default from config")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	fc := frame.DefaultConfig()
	topt := new(config.Config).TransportOptions(nil)
	if *configPath != "" {
		fs, err := config.NewOsFullReader("")
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		cfg := config.MustReadConfig(log, fs, *configPath)
		if fc, err = cfg.FrameConfig(); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		topt = cfg.TransportOptions(nil)
	}
	if *tcAddr == "" {
		*tcAddr = topt.ListenAddr
	}
	if *tmAddr == "" {
		*tmAddr = topt.TelemetryAddr
	}

	catalog, err := loadCatalog(*mdbPath, fc)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	pc, err := net.ListenPacket("udp", *tmAddr)
	if err != nil {
		log.Fatal(errors.ErrorStack(errors.Annotatef(err, "telemetry listen=%s", *tmAddr)))
	}
	go printTelemetry(pc, catalog)
	conn, err := net.Dial("tcp", *tcAddr)
	if err != nil {
		log.Fatal(errors.ErrorStack(errors.Annotatef(err, "link dial=%s", *tcAddr)))
	}
	log.Infof("connected link=%s telemetry=%s", *tcAddr, *tmAddr)

	c := &console{catalog: catalog, w: conn}
	cli.MainLoop("link-cli", c.exec, c.complete, func() {
		conn.Close()
		pc.Close()
	})
}

func loadCatalog(path string, fc frame.Config) (*gcs.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	doc, err := schema.ReadYAML(f)
	if err != nil {
		return nil, errors.Annotatef(err, "mdb=%s", path)
	}
	codec, err := frame.NewCodec(fc)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return gcs.NewCatalog(doc, codec)
}

func printTelemetry(pc net.PacketConn, catalog *gcs.Catalog) {
	buf := make([]byte, 64<<10)
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			log.Debugf("telemetry read: %v", err)
			return
		}
		p, values, err := catalog.Decode(buf[:n])
		if err != nil {
			log.Errorf("telemetry %s: %v", helpers.FormatHex(buf[:n]), err)
			continue
		}
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = v.String()
		}
		log.Infof("< %s %s", p.Name, strings.Join(strs, " "))
	}
}

type console struct {
	catalog *gcs.Catalog
	w       io.Writer
}

func (self *console) exec(line string) {
	if err := self.run(strings.Fields(line)); err != nil {
		log.Error(errors.ErrorStack(err))
	}
}

func (self *console) run(words []string) error {
	if len(words) == 0 {
		return nil
	}
	switch words[0] {
	case "help":
		log.Info(usage)
		return nil
	case "list":
		for _, c := range self.catalog.Commands() {
			args := make([]string, len(c.Args))
			for i, a := range c.Args {
				args[i] = a.Name + ":" + a.Type.String()
			}
			log.Infof("%d %s(%s) %s", c.ID, c.Name, strings.Join(args, ", "), c.Return)
		}
		return nil
	case "raw":
		b, err := parseHex(strings.Join(words[1:], ""))
		if err != nil {
			return err
		}
		return self.send(b)
	case "send":
		words = words[1:]
		if len(words) == 0 {
			return errors.Errorf("send: command name required")
		}
	}

	c, ok := self.catalog.Command(words[0])
	if !ok {
		return errors.NotFoundf("command=%s", words[0])
	}
	b, err := self.catalog.Frame(c, words[1:])
	if err != nil {
		return err
	}
	return self.send(b)
}

func (self *console) send(b []byte) error {
	log.Debugf("> %s", helpers.FormatHex(b))
	return errors.Trace(helpers.WriteAll(self.w, b))
}

func (self *console) complete(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "help"},
		{Text: "list", Description: "show commands"},
		{Text: "raw", Description: "send hex bytes"},
	}
	for _, c := range self.catalog.Commands() {
		suggests = append(suggests, prompt.Suggest{Text: c.Name, Description: "-> " + c.Return.String()})
	}
	return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
}

func parseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewNotValid(err, "raw")
	}
	return b, nil
}
