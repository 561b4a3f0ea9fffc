// Package mjvinfo is a CLI utility that prints container information.
package main

import (
	"fmt"
	"log"
	"os"

	"madj/pkg/madj"
)

const usage = `print container and track information
example: mjvinfo video.mjv`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	args := os.Args
	if len(args) != 2 {
		fmt.Println(usage)
		return nil
	}

	file, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer file.Close()

	demuxer, err := madj.NewDemuxer(file)
	if err != nil {
		return err
	}
	defer demuxer.Close()

	fmt.Printf("version: %d\n", demuxer.Version())
	fmt.Printf("tracks: %d\n", len(demuxer.Tracks()))

	for i, track := range demuxer.Tracks() {
		fmt.Printf("track %d:\n", i)
		fmt.Printf("  kind: %v\n", track.CodecKind)
		fmt.Printf("  codec id: %d\n", track.CodecID)
		fmt.Printf("  rate: %d/%d\n", track.Rate.Num, track.Rate.Den)
		fmt.Printf("  frames: %d\n", track.FrameCount)
		fmt.Printf("  subframes per frame: %d\n", track.SubframesPerFrame)
		fmt.Printf("  duration: %.3fs\n", track.Duration())

		if track.Video != nil {
			fmt.Printf("  resolution: %dx%d\n",
				track.Video.Width, track.Video.Height)
			fmt.Printf("  display: %dx%d\n",
				track.Video.DisplayWidth, track.Video.DisplayHeight)
			fmt.Printf("  pixel format: %d\n", track.Video.PixelFormat)
		}
		if track.Audio != nil {
			fmt.Printf("  sample rate: %d\n", track.Audio.SampleRate)
			fmt.Printf("  channels: %d\n", track.Audio.ChannelCount)
			fmt.Printf("  bits per sample: %d\n", track.Audio.BitsPerSample)
		}

		var payloadSize uint64
		for _, entry := range track.Index {
			payloadSize += uint64(entry.Size)
		}
		fmt.Printf("  payload size: %d\n", payloadSize)
	}
	return nil
}
