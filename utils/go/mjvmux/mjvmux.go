// Package mjvmux is a CLI utility that builds a container from a yaml
// job file.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"madj/pkg/madj"

	"gopkg.in/yaml.v2"
)

const usage = `build a container from a yaml job file
example: mjvmux job.yaml out.mjv

job file:
  tracks:
    - kind: video
      codecID: 1
      rateNum: 1
      rateDen: 25
      width: 640
      height: 480
      frames:
        - frame0.bin
        - frame1.bin
    - kind: audio
      codecID: 2
      rateNum: 1
      rateDen: 8000
      sampleRate: 8000
      channels: 1
      frames:
        - audio0.bin`

type jobTrack struct {
	Kind              string `yaml:"kind"`
	CodecID           uint32 `yaml:"codecID"`
	RateNum           uint32 `yaml:"rateNum"`
	RateDen           uint32 `yaml:"rateDen"`
	SubframesPerFrame uint64 `yaml:"subframesPerFrame"`

	Width         uint32 `yaml:"width"`
	Height        uint32 `yaml:"height"`
	DisplayWidth  uint32 `yaml:"displayWidth"`
	DisplayHeight uint32 `yaml:"displayHeight"`
	PixelFormat   uint32 `yaml:"pixelFormat"`

	SampleRate    uint32 `yaml:"sampleRate"`
	Channels      uint32 `yaml:"channels"`
	BitsPerSample uint32 `yaml:"bitsPerSample"`

	Frames []string `yaml:"frames"`
}

type job struct {
	Tracks []jobTrack `yaml:"tracks"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	args := os.Args
	if len(args) != 3 {
		fmt.Println(usage)
		return nil
	}

	rawJob, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	var j job
	if err := yaml.UnmarshalStrict(rawJob, &j); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	tracks, err := parseTracks(j)
	if err != nil {
		return err
	}

	out, err := os.Create(args[2])
	if err != nil {
		return err
	}
	defer out.Close()

	muxer, err := madj.NewMuxer(out, tracks)
	if err != nil {
		return err
	}

	// Frame paths are relative to the job file.
	jobDir := filepath.Dir(args[1])

	for i, track := range j.Tracks {
		for _, framePath := range track.Frames {
			payload, err := os.ReadFile(filepath.Join(jobDir, framePath))
			if err != nil {
				return err
			}
			if err := muxer.WriteFrame(i, payload); err != nil {
				return fmt.Errorf("%v: %w", framePath, err)
			}
		}
	}

	if err := muxer.Finalize(); err != nil {
		return err
	}

	fmt.Printf("wrote %v tracks to %v\n", len(tracks), args[2])
	return nil
}

func parseTracks(j job) ([]madj.TrackInfo, error) {
	if len(j.Tracks) == 0 {
		return nil, fmt.Errorf("job has no tracks")
	}

	var tracks []madj.TrackInfo
	for i, track := range j.Tracks {
		info := madj.TrackInfo{
			SubframesPerFrame: track.SubframesPerFrame,
			Rate: madj.Rational{
				Num: track.RateNum,
				Den: track.RateDen,
			},
			CodecID: track.CodecID,
		}

		switch track.Kind {
		case "video":
			info.CodecKind = madj.CodecVideo
			info.Video = &madj.VideoInfo{
				Width:         track.Width,
				Height:        track.Height,
				DisplayWidth:  track.DisplayWidth,
				DisplayHeight: track.DisplayHeight,
				PixelFormat:   track.PixelFormat,
			}
		case "audio":
			info.CodecKind = madj.CodecAudio
			info.Audio = &madj.AudioInfo{
				SampleRate:    track.SampleRate,
				ChannelCount:  track.Channels,
				BitsPerSample: track.BitsPerSample,
			}
		default:
			return nil, fmt.Errorf("track %d: unknown kind: %q", i, track.Kind)
		}

		tracks = append(tracks, info)
	}
	return tracks, nil
}
