package vmxnet3

// Event condition bits carried in the ECR register (spec §4.6): bit0 is
// an RX queue error, bit1 a TX queue error, bits 2 and 3 both call for a
// link recheck (resume and link-change respectively).
const (
	evtRXQueueErr = 0x01
	evtTXQueueErr = 0x02
	evtResume     = 0x04
	evtLinkChange = 0x08

	evtLinkMask  = evtResume | evtLinkChange
	evtKnownMask = evtRXQueueErr | evtTXQueueErr | evtResume | evtLinkChange
)

// handleEvent services the event MSI-X vector: mask, read-and-ack ECR,
// recheck link state on bits 2/3, log queue errors and anything
// unrecognized, unmask (spec §4.6).
func (d *Driver) handleEvent() {
	d.regs.disableIntr(0)

	ecr := d.regs.readVD(vdECR)
	d.regs.writeVD(vdECR, ecr)

	if ecr&evtRXQueueErr != 0 {
		d.logf("RX queue error reported")
	}

	if ecr&evtTXQueueErr != 0 {
		d.logf("TX queue error reported")
	}

	if ecr&evtLinkMask != 0 {
		up, speed := checkLink(d.regs)
		d.linkUp = up
		d.linkSpeed = speed

		if !up {
			d.logf("link down")
		} else {
			d.logf("link up at %d Mbps", speed)
		}
	}

	if unknown := ecr &^ evtKnownMask; unknown != 0 {
		d.logf("unrecognized event bits %#x", unknown)
	}

	d.regs.enableIntr(0)
}

// handleTXComplete services the TX completion MSI-X vector: mask, reclaim
// finished descriptors (which also drains more of the send queue),
// unmask (spec §4.6).
func (d *Driver) handleTXComplete() {
	d.regs.disableIntr(1)
	d.reclaimTX()
	d.regs.enableIntr(1)
}

// handleRX services RX queue q's MSI-X vector: mask, drain the completion
// ring, refill, unmask, and only then deliver the batch upstream in
// arrival order (spec §4.6 RX row).
func (d *Driver) handleRX(q int) {
	vec := uint8(2 + q)

	d.regs.disableIntr(vec)

	batch := d.receive(q)
	if len(batch) > 0 {
		d.refill(q)
	}

	d.regs.enableIntr(vec)

	if d.uplink != nil {
		for _, pkt := range batch {
			d.uplink.Receive(pkt)
		}
	}
}

// Poll drains every RX queue and the TX completion ring in a reentrancy
// guarded loop, stopping only once a full pass finds no work -- the
// software-interrupt fallback path for event loops that don't run from
// real MSI-X delivery (spec §5).
func (d *Driver) Poll() {
	if d.alreadyPolling {
		return
	}

	d.alreadyPolling = true
	defer func() { d.alreadyPolling = false }()

	for {
		work := false

		for q := 0; q < NumRXQueues; q++ {
			batch := d.receive(q)
			if len(batch) == 0 {
				continue
			}

			work = true
			d.refill(q)

			if d.uplink != nil {
				for _, pkt := range batch {
					d.uplink.Receive(pkt)
				}
			}
		}

		if d.reclaimTX() != 0 {
			work = true
		}

		if !work {
			return
		}
	}
}
