// Package forwarder streams playback progress to a remote listener over
// UDP so a ground station can plot the trajectory as it is replayed.
// Datagrams are best-effort: when the sender falls behind, snapshots are
// dropped rather than delaying playback.
package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var maxDatagramSize = int(unsafe.Sizeof(Header{}) + unsafe.Sizeof(Progress{}))

type UDPConfig struct {
	Server string
	Port   int
}

type UDPForwarder struct {
	Config *UDPConfig

	conn    net.Conn
	fwdChan chan *Progress
}

func NewUDPForwarder(fileName string) (*UDPForwarder, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to determine binary location")
	}
	file, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return NewUDPForwarderFromReader(file)
}

func NewUDPForwarderFromReader(configReader io.Reader) (*UDPForwarder, error) {
	configData, err := io.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := UDPConfig{}
	if _, err := toml.Decode(string(configData), &config); err != nil {
		return nil, errors.Wrapf(err, "unable to load udp forwarder configuration")
	}
	return NewUDPForwarderWithConfig(&config)
}

func NewUDPForwarderWithConfig(config *UDPConfig) (*UDPForwarder, error) {
	udp := &UDPForwarder{
		Config:  config,
		fwdChan: make(chan *Progress, 1),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

// Forward queues a snapshot for sending. Never blocks; when the previous
// snapshot is still waiting the new one is skipped.
func (udp *UDPForwarder) Forward(progress *Progress) error {
	progressCopy := *progress
	select {
	// copy the snapshot as it is processed on another go-routine
	case udp.fwdChan <- &progressCopy:
	default:
		// if channel is full, skip
	}
	return nil
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	limiter := time.Tick(100 * time.Millisecond)
	for {
		<-limiter
		select {
		case p := <-udp.fwdChan:
			if err := udp.forward(p); err != nil {
				log.Error("unable to forward progress to server ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Completion announces the end of a playback session. Sent directly, not
// through the rate limiter, so the final datagram is never dropped.
func (udp *UDPForwarder) Completion() error {
	buf := bytes.NewBuffer([]byte{})
	hdr := Header{
		Type: TypeCompletion,
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	return binary.Write(udp.conn, binary.LittleEndian, buf.Bytes())
}

func (udp *UDPForwarder) forward(progress *Progress) error {
	buf := bytes.NewBuffer([]byte{})
	hdr := Header{
		Type: TypeProgress,
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	if err := binary.Write(buf, binary.LittleEndian, progress); err != nil {
		return errors.Wrap(err, "unable to write progress udp packet")
	}
	return binary.Write(udp.conn, binary.LittleEndian, buf.Bytes())
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := maxDatagramSize * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return err
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
