package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// EtherTypeEtherCAT is the EtherType carried by frames holding one or more
// EtherCAT datagrams (ETG.1000, 0x88A4).
const EtherTypeEtherCAT = 0x88a4

// LayerTypeEtherCAT is the gopacket layer type registered for Frame below,
// grounded on the custom-layer pattern the corpus uses gopacket/layers for
// (common/go/xpacket). 5000+ is gopacket's convention for user-registered
// layer numbers, clear of everything layers.go itself assigns.
var LayerTypeEtherCAT = gopacket.RegisterLayerType(
	5001,
	gopacket.LayerTypeMetadata{Name: "EtherCAT", Decoder: gopacket.DecodeFunc(decodeFrame)},
)

const (
	headerLen      = 10 // command(1) + index(1) + address(4) + len/flags(2) + irq(2)
	workingCtrLen  = 2
	lengthMask     = 0x07ff
	roundTripFlag  = 0x4000
	moreFollowFlag = 0x8000
)

// Segment is the on-wire representation of one datagram within a Frame:
// header fields, payload, and the trailing working counter.
type Segment struct {
	Command        Command
	Index          uint8
	Address        uint32
	RoundTrip      bool
	Interrupt      uint16
	Payload        []byte
	WorkingCounter uint16
}

// Frame is the gopacket layer for an EtherCAT frame: an ordered sequence
// of datagrams sharing one Ethernet frame, chained via the "more follows"
// length-field flag.
type Frame struct {
	layers.BaseLayer
	Segments []Segment
}

// LayerType implements gopacket.Layer.
func (f *Frame) LayerType() gopacket.LayerType { return LayerTypeEtherCAT }

// CanDecode implements gopacket.DecodingLayer.
func (f *Frame) CanDecode() gopacket.LayerClass { return LayerTypeEtherCAT }

// NextLayerType implements gopacket.DecodingLayer.
func (f *Frame) NextLayerType() gopacket.LayerType { return gopacket.LayerTypeZero }

func decodeFrame(data []byte, p gopacket.PacketBuilder) error {
	f := &Frame{}
	if err := f.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(f)
	return nil
}

// DecodeFromBytes implements gopacket.DecodingLayer: it walks the chain of
// fixed-layout datagrams (header, payload, working counter) described in
// spec §6.
func (f *Frame) DecodeFromBytes(data []byte, _ gopacket.DecodeFeedback) error {
	f.Segments = f.Segments[:0]

	offset := 0
	for {
		if len(data)-offset < headerLen {
			return fmt.Errorf("wire: truncated datagram header at offset %d", offset)
		}
		hdr := data[offset : offset+headerLen]
		lengthFlags := binary.LittleEndian.Uint16(hdr[6:8])
		length := int(lengthFlags & lengthMask)

		payloadStart := offset + headerLen
		payloadEnd := payloadStart + length
		if len(data) < payloadEnd+workingCtrLen {
			return fmt.Errorf("wire: truncated datagram payload at offset %d", offset)
		}

		seg := Segment{
			Command:        Command(hdr[0]),
			Index:          hdr[1],
			Address:        binary.LittleEndian.Uint32(hdr[2:6]),
			RoundTrip:      lengthFlags&roundTripFlag != 0,
			Interrupt:      binary.LittleEndian.Uint16(hdr[8:10]),
			Payload:        data[payloadStart:payloadEnd],
			WorkingCounter: binary.LittleEndian.Uint16(data[payloadEnd : payloadEnd+workingCtrLen]),
		}
		f.Segments = append(f.Segments, seg)

		more := lengthFlags&moreFollowFlag != 0
		offset = payloadEnd + workingCtrLen
		if !more {
			break
		}
	}

	f.BaseLayer = layers.BaseLayer{Contents: data[:offset], Payload: data[offset:]}
	return nil
}

// SerializeTo implements gopacket.SerializableLayer. Segments are written
// in order, each one flagged "more follows" except the last.
func (f *Frame) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	for i := len(f.Segments) - 1; i >= 0; i-- {
		seg := f.Segments[i]
		total := headerLen + len(seg.Payload) + workingCtrLen
		buf, err := b.PrependBytes(total)
		if err != nil {
			return fmt.Errorf("wire: serialize segment %d: %w", i, err)
		}

		lengthFlags := uint16(len(seg.Payload)) & lengthMask
		if seg.RoundTrip {
			lengthFlags |= roundTripFlag
		}
		if i != len(f.Segments)-1 {
			lengthFlags |= moreFollowFlag
		}

		buf[0] = byte(seg.Command)
		buf[1] = seg.Index
		binary.LittleEndian.PutUint32(buf[2:6], seg.Address)
		binary.LittleEndian.PutUint16(buf[6:8], lengthFlags)
		binary.LittleEndian.PutUint16(buf[8:10], seg.Interrupt)
		copy(buf[headerLen:headerLen+len(seg.Payload)], seg.Payload)
		binary.LittleEndian.PutUint16(buf[headerLen+len(seg.Payload):], seg.WorkingCounter)
	}
	return nil
}

// FromDatagram builds a wire Segment from a core Datagram, for handing to
// the transport layer at send time.
func FromDatagram(d *Datagram, index uint8) Segment {
	return Segment{
		Command: d.Command,
		Index:   index,
		Address: d.Address,
		Payload: d.Payload,
	}
}

// CopyInto writes a decoded reply segment's payload and working counter
// back into the Datagram that produced it and marks it received, the
// transport layer's receive-side counterpart to FromDatagram.
func (s Segment) CopyInto(d *Datagram) {
	copy(d.Payload, s.Payload)
	d.WorkingCounter = s.WorkingCounter
	d.State = StateReceived
}
