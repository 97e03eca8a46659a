package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// Source yields raw frames until exhausted or closed. A live interface
// source blocks between frames; an offline file source returns io.EOF
// once exhausted.
type Source interface {
	// Next blocks for the next frame. It returns an error (including
	// io.EOF for offline sources) when no more frames are available.
	Next() (gopacket.Packet, error)
	Close()
}

// pcapSource wraps a *pcap.Handle, covering both live interfaces and
// offline capture files: pcap.OpenLive and pcap.OpenOffline return handles
// with an identical read path.
type pcapSource struct {
	handle *pcap.Handle
	source *gopacket.PacketSource
}

func newPcapSource(handle *pcap.Handle) *pcapSource {
	return &pcapSource{
		handle: handle,
		source: gopacket.NewPacketSource(handle, handle.LinkType()),
	}
}

func (s *pcapSource) Next() (gopacket.Packet, error) {
	return s.source.NextPacket()
}

func (s *pcapSource) Close() {
	s.handle.Close()
}

// OpenLive opens a live network interface for capture. snaplen bounds the
// number of bytes captured per frame; bpfFilter may be empty.
func OpenLive(iface string, snaplen int32, promiscuous bool, timeout time.Duration, bpfFilter string) (Source, error) {
	handle, err := pcap.OpenLive(iface, snaplen, promiscuous, timeout)
	if err != nil {
		return nil, fmt.Errorf("open live interface %s: %w", iface, err)
	}
	if bpfFilter != "" {
		if err := handle.SetBPFFilter(bpfFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set bpf filter %q: %w", bpfFilter, err)
		}
	}
	return newPcapSource(handle), nil
}

// OpenOffline replays a capture file, e.g. for regression testing against
// a recorded attack trace.
func OpenOffline(path string) (Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file %s: %w", path, err)
	}
	return newPcapSource(handle), nil
}
