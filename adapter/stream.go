package adapter

import (
	log "github.com/sirupsen/logrus"
)

// Serial reads deliver arbitrary chunks: packets arrive split across reads
// or glued together, and line noise can precede a header. StreamParser
// reassembles checksum-valid fixed-protocol packets from the byte stream.
type StreamParser struct {
	buf []byte
}

// maxBacklog bounds the buffer while waiting for a checksum-valid packet so
// a noisy line cannot grow it without limit.
const maxBacklog = 200

// Push appends freshly read bytes and returns every complete packet that
// can be extracted. Corrupt stretches are skipped by re-aligning on the
// next 0xAA 0x55 header.
func (p *StreamParser) Push(data []byte) []Message {
	p.buf = append(p.buf, data...)

	var msgs []Message
	for {
		if !p.align() {
			return msgs
		}

		// a header inside the current packet's span means the span is
		// garbage; a header exactly one packet away delimits it
		next := findHeader(p.buf[2:])
		if next >= 0 {
			next += 2
			if next < FixedPacketSize {
				log.WithField("length", next).Debug("truncated packet, discarding")
				p.buf = p.buf[next:]
				continue
			}
			if next > FixedPacketSize {
				log.WithField("length", next).Debug("oversized packet span, discarding")
				p.buf = p.buf[next:]
				continue
			}
		} else if len(p.buf) < FixedPacketSize {
			return msgs
		}

		candidate := p.buf[:FixedPacketSize:FixedPacketSize]
		if !verifyChecksum(candidate) {
			if next == FixedPacketSize {
				// delimited but corrupt, drop it
				log.Debug("checksum failed for aligned packet, discarding")
				p.buf = p.buf[FixedPacketSize:]
				continue
			}
			// maybe an unluckily split packet; wait for more bytes unless
			// the backlog shows this is noise
			if len(p.buf) > maxBacklog {
				p.buf = p.buf[1:]
				continue
			}
			return msgs
		}

		msg, err := ParseFixed(candidate)
		p.buf = p.buf[FixedPacketSize:]
		if err != nil {
			log.WithField("err", err).Warn("unparseable packet")
			continue
		}
		msgs = append(msgs, msg)
	}
}

// align discards bytes until the buffer starts with a full 0xAA 0x55
// header. Reports whether it does.
func (p *StreamParser) align() bool {
	if pos := findHeader(p.buf); pos >= 0 {
		if pos > 0 {
			log.WithField("discarded", pos).Debug("skipping bytes before packet header")
			p.buf = p.buf[pos:]
		}
		return true
	}
	// keep a trailing 0xAA, its 0x55 may be in the next read
	if n := len(p.buf); n > 0 && p.buf[n-1] == 0xAA {
		p.buf = p.buf[n-1:]
	} else {
		p.buf = p.buf[:0]
	}
	return false
}

func findHeader(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == 0xAA && buf[i+1] == 0x55 {
			return i
		}
	}
	return -1
}

func verifyChecksum(packet []byte) bool {
	return checksum(packet[:FixedPacketSize-1]) == packet[FixedPacketSize-1]
}
