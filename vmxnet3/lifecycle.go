package vmxnet3

import (
	"fmt"
	"log"

	"github.com/kjvmnet/netdrv/drvstat"
	"github.com/kjvmnet/netdrv/ethlink"
	"github.com/kjvmnet/netdrv/pcidev"
	"github.com/kjvmnet/netdrv/vmxnet3/ring"
)

// New binds a Driver to dev, performing the full activation handshake
// (spec §4.2): revision/MSI-X checks, version negotiation, reset, MAC
// retrieval, link check, shared-info population and ACTIVATE_DEV, initial
// RX refill, and interrupt enable.
//
// Unlike the original, a link-down device still completes activation
// (rings, shared info, interrupts all come up) rather than returning a
// half-built object out of the constructor: spec §7 describes LinkDown as
// "construction completes... driver stays idle until link comes up",
// and an idiomatic Go constructor either returns a fully usable value or
// an error, never a partially-initialized one for the caller to poke at.
// While the link is down, drainSendq posts nothing to the TX ring, which
// is what keeps the driver idle either way.
func New(cfg Config) (*Driver, error) {
	dev := cfg.Device

	if dev.RevisionID() != pcidev.RevisionID {
		return nil, fmt.Errorf("%w: revision %#x", ErrUnsupportedDevice, dev.RevisionID())
	}

	if err := dev.ParseCapabilities(); err != nil {
		return nil, fmt.Errorf("vmxnet3: parse capabilities: %w", err)
	}

	if err := dev.ProbeResources(); err != nil {
		return nil, fmt.Errorf("vmxnet3: probe resources: %w", err)
	}

	if !dev.HasMSIX() {
		return nil, ErrNoMsix
	}

	vectors := dev.MSIXVectors()
	if vectors > maxIntrs {
		vectors = maxIntrs
	}

	if vectors < 2+NumRXQueues {
		return nil, fmt.Errorf("%w: only %d MSI-X vectors available", ErrNoMsix, vectors)
	}

	irqVecs := make([]uint8, 0, vectors)

	for i := uint8(0); i < vectors; i++ {
		if err := dev.SetupMSIXVector(cfg.CPU, i); err != nil {
			return nil, fmt.Errorf("vmxnet3: setup MSI-X vector %d: %w", i, err)
		}

		irqVecs = append(irqVecs, i)
	}

	vdBAR, err := dev.BAR(pcidev.BarVD)
	if err != nil {
		return nil, fmt.Errorf("vmxnet3: resolve VD bar: %w", err)
	}

	ptBAR, err := dev.BAR(pcidev.BarPT)
	if err != nil {
		return nil, fmt.Errorf("vmxnet3: resolve PT bar: %w", err)
	}

	r := newRegs(vdBAR, ptBAR, dev)

	if !checkVersion(r) {
		return nil, fmt.Errorf("%w: version negotiation failed", ErrUnsupportedDevice)
	}

	if !reset(r) {
		return nil, fmt.Errorf("%w: reset failed", ErrUnsupportedDevice)
	}

	mac := retrieveHWAddr(r)
	setHWAddr(r, mac)

	linkUp, linkSpeed := checkLink(r)
	if !linkUp {
		log.Print(linkDownNotice)
	}

	bufSize, err := bufferSizeForMTU(cfg.MTU)
	if err != nil {
		return nil, err
	}

	if cfg.Store == nil {
		return nil, fmt.Errorf("vmxnet3: Config.Store is required")
	}

	if cfg.Store.BufSize() < bufSize {
		return nil, fmt.Errorf("vmxnet3: buffer store bufsize %d too small for MTU %d (need %d)",
			cfg.Store.BufSize(), cfg.MTU, bufSize)
	}

	d := &Driver{
		dev:       dev,
		regs:      r,
		mtu:       cfg.MTU,
		mac:       mac,
		linkUp:    linkUp,
		linkSpeed: linkSpeed,
		store:     cfg.Store,
		uplink:    cfg.Uplink,
		bus:       cfg.Bus,
		deferred:  cfg.Deferred,
		cpu:       cfg.CPU,
		irqVecs:   irqVecs,
	}

	dma, raw := newDMAArea()
	d.dma = dma
	d.dmaRaw = raw

	d.tx.desc = ring.NewDesc(dma.txDesc[:])
	d.tx.comp = ring.NewComp(dma.txComp[:], 1)

	d.cfg.TX = txQueueConfig{
		DescAddress: uint64(uintptrOf(&dma.txDesc[0])),
		CompAddress: uint64(uintptrOf(&dma.txComp[0])),
		NumDesc:     NumTXDesc,
		NumComp:     NumTXComp,
		IntrIndex:   1,
	}

	for q := 0; q < NumRXQueues; q++ {
		rq := &dma.rx[q]
		d.rx[q].desc0 = ring.NewDesc(rq.desc0[:])
		d.rx[q].desc1 = ring.NewDesc(rq.desc1[:])
		d.rx[q].comp = ring.NewComp(rq.comp[:], 1)
		d.rx[q].id0 = uint32(q)
		d.rx[q].id1 = uint32(q + NumRXQueues)

		d.cfg.RX[q] = rxQueueConfig{
			Desc0Address:  uint64(uintptrOf(&rq.desc0[0])),
			Desc1Address:  uint64(uintptrOf(&rq.desc1[0])),
			CompAddress:   uint64(uintptrOf(&rq.comp[0])),
			NumDesc0:      NumRXDesc0,
			NumDesc1:      NumRXDesc1,
			NumComp:       NumRXComp,
			DriverDataLen: uint32(NumRXComp) * uint32(sizeofRXDesc),
			IntrIndex:     uint32(2 + q),
		}
	}

	dma.queues = d.cfg

	populateSharedInfo(dma, cfg.MTU)

	shBase := uintptrOf(&dma.shared)
	r.writeVD(vdSharedLow, uint32(shBase))
	r.writeVD(vdSharedHigh, 0)

	if status := r.command(cmdActivateDev); status != 0 {
		return nil, fmt.Errorf("%w: status %#x", ErrActivationFailed, status)
	}

	d.stats = drvstat.NewRegistry(d.DriverName())
	d.statSendqCur = d.stats.Create("sendq_now")
	d.statSendqMax = d.stats.Create("sendq_max")
	d.statRxRefillDropped = d.stats.Create("rx_refill_dropped")
	d.statSendqDropped = d.stats.Create("sendq_dropped")
	d.statBufferSize = d.stats.Create("buffer_size")
	d.statBufferSize.Set(uint64(cfg.Store.BufSize()))

	for q := 0; q < NumRXQueues; q++ {
		d.refill(q)
	}

	if cfg.Bus != nil && cfg.Deferred != nil {
		d.deferredToken = cfg.Bus.Subscribe(cfg.Deferred.HandleDeferred)
	}

	r.enableIntr(0)
	r.enableIntr(1)

	for q := 0; q < NumRXQueues; q++ {
		r.enableIntr(uint8(2 + q))
	}

	return d, nil
}

// checkVersion negotiates protocol version 1 (spec §4.2). The device
// reports the versions it supports at VD+0x00/0x08; this driver writes
// back {1,1} to select version 1, and only the capability bits matter --
// a device that cannot do version 1 must clear bit 0 in both registers.
func checkVersion(r *regs) bool {
	major := r.readVD(vdVersionMajor)
	minor := r.readVD(vdVersionMinor)

	if major&1 == 0 || minor&1 == 0 {
		return false
	}

	r.writeVD(vdVersionMajor, 1)
	r.writeVD(vdVersionMinor, 1)

	return true
}

// reset issues RESET_DEV; success is a zero status (spec §4.2).
func reset(r *regs) bool {
	return r.command(cmdResetDev) == 0
}

// retrieveHWAddr reads the device's permanent MAC out of VD+0x28/0x30
// (spec §4.2, §8 scenario 1).
func retrieveHWAddr(r *regs) ethlink.MAC {
	lo := r.readVD(vdMACLow)
	hi := r.readVD(vdMACHigh)

	var mac ethlink.MAC
	mac[0] = byte(lo)
	mac[1] = byte(lo >> 8)
	mac[2] = byte(lo >> 16)
	mac[3] = byte(lo >> 24)
	mac[4] = byte(hi)
	mac[5] = byte(hi >> 8)

	return mac
}

// setHWAddr programs the device's MAC registers (spec §4.2).
func setHWAddr(r *regs, mac ethlink.MAC) {
	lo := uint32(mac[0]) | uint32(mac[1])<<8 | uint32(mac[2])<<16 | uint32(mac[3])<<24
	hi := uint32(mac[4]) | uint32(mac[5])<<8

	r.writeVD(vdMACLow, lo)
	r.writeVD(vdMACHigh, hi)
}

// checkLink issues GET_LINK: bit 0 is up/down, the upper 16 bits are the
// link speed in Mbps when up (spec §4.2).
func checkLink(r *regs) (up bool, speedMbps uint16) {
	state := r.command(cmdGetLink)
	up = state&1 != 0

	if !up {
		return false, 0
	}

	return true, uint16(state >> 16)
}

// populateSharedInfo fills in the shared info block exactly as spec §4.7
// describes, resolving Open Question 1 (spec §9): driver_data_address is
// the DMA area's own base address, never the address of a local pointer
// variable.
func populateSharedInfo(dma *dmaArea, mtu uint16) {
	sh := &dma.shared
	sh.Magic = sharedMagic
	sh.Misc = miscInfo{
		GuestArch:         guestArchBits(),
		GuestType:         gosTypeLinux,
		DriverVersion:     vmxnet3VersionMagic,
		VersionSupport:    1,
		UPTVersionSupport: 1,
		UPTFeatures:       uptV1Features,
		DriverDataAddress: uint64(dma.baseAddress()),
		QueueDescAddress:  uint64(uintptrOf(&dma.queues)),
		DriverDataLen:     uint32(sizeofDMAArea),
		QueueDescLen:      uint32(sizeofQueueDescs),
		MTU:               uint32(maxPacketLen(mtu)),
		NumTXQueues:       1,
		NumRXQueues:       NumRXQueues,
	}
	sh.Intr.MaskMode = itAuto | (immAuto << 2)
	sh.Intr.NumIntrs = maxIntrs
	sh.Intr.EventIntrIdx = 0

	for i := range sh.Intr.Moderation {
		sh.Intr.Moderation[i] = imlAdaptive
	}

	sh.Intr.Control = 0x1 // all masked initially.
	sh.RxFilter.Mode = rxFilterMode
}

// Deactivate releases every buffer still held by the rings back to the
// store, masks every MSI-X vector and resets the device with RESET_DEV (spec §9 "Device lifecycle"). It does not
// attempt hot-plug removal (spec §1 Non-goals): the PCI device itself is
// left bound, only the driver's own state is torn down.
func (d *Driver) Deactivate() {
	for i := range d.tx.buffers {
		if buf := d.tx.buffers[i]; buf != nil {
			d.store.Release(buf)
			d.tx.buffers[i] = nil
		}
	}

	for q := range d.rx {
		rq := &d.rx[q]

		for i := range rq.buffers0 {
			if buf := rq.buffers0[i]; buf != nil {
				d.store.Release(buf)
				rq.buffers0[i] = nil
			}
		}

		for i := range rq.buffers1 {
			if buf := rq.buffers1[i]; buf != nil {
				d.store.Release(buf)
				rq.buffers1[i] = nil
			}
		}
	}

	for i := range d.irqVecs {
		d.regs.disableIntr(uint8(i))
	}

	d.regs.command(cmdResetDev)
}

// MoveToThisCPU reattaches the driver, its buffer store, and its MSI-X
// vectors to cpu after a migration (spec §12, ported from
// vmxnet3::move_to_this_cpu -- recovered from original_source since the
// distillation dropped it). The caller supplies cpu explicitly: unlike
// the original's ambient get_cpu_id(), nothing in this package's
// collaborator surface (spec §6) exposes "the calling CPU" on its own.
func (d *Driver) MoveToThisCPU(cpu int) {
	d.cpu = cpu
	d.store.MoveToThisCPU()

	for i, vec := range d.irqVecs {
		if err := d.dev.RebalanceMSIXVector(i, cpu, vec); err != nil {
			d.logf("rebalance MSI-X vector %d: %v", vec, err)
		}
	}
}
