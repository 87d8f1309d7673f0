// Command vmxnet3ctl is a demo harness for the vmxnet3 driver: it binds a
// Driver to a fake PCI device standing in for a real hypervisor-backed
// adapter, then runs one of a few small diagnostic subcommands against it.
// There is no real hardware path here -- see pcidev.Fake -- the point is
// to exercise Driver's public surface the way an init script would.
package main

import (
	"fmt"
	"log"

	"github.com/alecthomas/kong"

	"github.com/kjvmnet/netdrv/bufpool"
	"github.com/kjvmnet/netdrv/irqbus"
	"github.com/kjvmnet/netdrv/pcidev"
	"github.com/kjvmnet/netdrv/vmxnet3"
)

// CLI is the kong root command, following the same struct-of-subcommands
// shape as gokvm's flag.CLI (flag/runs.go).
type CLI struct {
	Activate ActivateCMD `cmd:"" help:"Activate a fake vmxnet3 device and print its driver name, MAC and MTU."`
	Stats    StatsCMD    `cmd:"" help:"Activate a fake vmxnet3 device and print its statistics registry."`
	LinkShow LinkShowCMD `cmd:"" help:"Activate a fake vmxnet3 device and print its MAC and free TX tokens."`
}

// ActivateCMD prints driver name, MAC and MTU after activation; the link
// state is not printed.
type ActivateCMD struct {
	MTU int `help:"Interface MTU." default:"1500"`
}

// StatsCMD prints the driver's named statistics after activation.
type StatsCMD struct {
	MTU int `help:"Interface MTU." default:"1500"`
}

// LinkShowCMD prints the MAC and the number of free TX tokens. The link
// up/down state itself is not printed: Driver does not expose it.
type LinkShowCMD struct {
	MTU int `help:"Interface MTU." default:"1500"`
}

func newDemoDriver(mtu int) (*vmxnet3.Driver, error) {
	dev := pcidev.NewFake()
	dev.WriteHook = demoFirmware(dev)

	cfg := vmxnet3.Config{
		Device:   dev,
		MTU:      uint16(mtu),
		Store:    bufpool.NewPool(2048, 2048),
		Bus:      irqbus.NewDispatcher(),
		Deferred: vmxnet3.NewDeferredRegistry(),
	}

	return vmxnet3.New(cfg)
}

func (c *ActivateCMD) Run() error {
	d, err := newDemoDriver(c.MTU)
	if err != nil {
		return err
	}

	fmt.Printf("driver=%s mac=%s mtu=%d\n", d.DriverName(), d.MAC(), d.MTU())

	return nil
}

func (c *StatsCMD) Run() error {
	d, err := newDemoDriver(c.MTU)
	if err != nil {
		return err
	}

	for name, value := range d.Stats().Snapshot() {
		fmt.Printf("%s=%d\n", name, value)
	}

	return nil
}

func (c *LinkShowCMD) Run() error {
	d, err := newDemoDriver(c.MTU)
	if err != nil {
		return err
	}

	fmt.Printf("mac=%s tokens_free=%d\n", d.MAC(), d.TransmitQueueAvailable())

	return nil
}

func main() {
	c := CLI{}

	ctx := kong.Parse(&c,
		kong.Name("vmxnet3ctl"),
		kong.Description("vmxnet3ctl activates and inspects a fake vmxnet3 device"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if err := ctx.Run(); err != nil {
		log.Fatal(err)
	}
}
