package dcmpix

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ChangeTransferSyntax rewrites the pixel element of an image with another
// transfer syntax.
//
// The codec is looked up in UserCodec first, then in Codecs; the first codec
// able to code the target wins.
type ChangeTransferSyntax struct {
	// TransferSyntax is the target syntax. When empty and Force is set, the
	// filter only checks that the pixel data can be decoded.
	TransferSyntax TransferSyntax
	// Force re-encodes the pixel data even when it already uses the target syntax.
	Force bool
	// CompressIconImage encodes the icon with the target syntax instead of
	// leaving it uncompressed.
	CompressIconImage bool
	// UserCodec takes precedence over Codecs.
	UserCodec Codec
	Codecs    Codecs

	logger *zap.SugaredLogger
}

// NewChangeTransferSyntax returns a filter using DefaultCodecs.
func NewChangeTransferSyntax(ts TransferSyntax) *ChangeTransferSyntax {
	return &ChangeTransferSyntax{
		TransferSyntax: ts,
		Codecs:         DefaultCodecs(),
		logger:         zap.NewNop().Sugar(),
	}
}

// SetLogger sets the logger of the filter and of the codecs that accept one.
func (f *ChangeTransferSyntax) SetLogger(l *zap.SugaredLogger) {
	f.logger = l
	for _, c := range append(Codecs{f.UserCodec}, f.Codecs...) {
		if lc, ok := c.(interface{ SetLogger(*zap.SugaredLogger) }); ok {
			lc.SetLogger(l)
		}
	}
}

// Change returns img with its pixel element rewritten. img is never modified;
// when there is nothing to do img itself is returned.
func (f *ChangeTransferSyntax) Change(img *Image) (*Image, error) {
	if f.logger == nil {
		f.logger = zap.NewNop().Sugar()
	}

	if f.TransferSyntax == "" {
		if !f.Force {
			return nil, ConfigurationError("no target transfer syntax")
		}
		if _, err := f.decode(img); err != nil {
			return nil, err
		}
		return img, nil
	}

	if f.TransferSyntax == img.TransferSyntax && !f.Force {
		f.logger.Debugf("pixel data already encoded with %s", img.TransferSyntax)
		return img, nil
	}

	out, err := f.change(img, f.TransferSyntax)
	if err != nil {
		return nil, err
	}

	if img.Icon != nil {
		target := f.TransferSyntax
		if !f.CompressIconImage && target.IsEncapsulated() {
			target = ExplicitVRLittleEndian
		}
		icon, err := f.change(img.Icon, target)
		if err != nil {
			return nil, errors.Wrap(err, "icon image")
		}
		out.Icon = icon
	}
	return out, nil
}

func (f *ChangeTransferSyntax) change(img *Image, target TransferSyntax) (*Image, error) {
	encoder, ok := f.encoder(target)
	if !ok {
		return nil, CapabilityError(fmt.Sprintf("no codec can code %s", target))
	}

	native, err := f.decode(img)
	if err != nil {
		return nil, err
	}

	out := img.Clone()
	out.Icon = nil
	out.TransferSyntax = target
	switch out.Photometric {
	case YBRRCT, YBRICT:
		out.Photometric = RGB // Decoders undo the component transform.
	}

	f.logger.Debugf("coding %s to %s with %s codec", img.TransferSyntax, target, encoder.Name())
	coded, err := encoder.Code(out, native)
	if err != nil {
		return nil, errors.Wrapf(err, "%s codec", encoder.Name())
	}
	out.PixelData = coded

	lossy := target.IsLossy()
	if lc, ok := encoder.(interface{ IsLossy() bool }); ok {
		lossy = lc.IsLossy()
	}
	if lossy && !img.Lossy {
		f.logger.Warnf("%s discards information", target)
	}
	out.Lossy = img.Lossy || lossy

	if (target == JPEG2000Lossless || target == JPEG2000) && out.PixelFormat.SamplesPerPixel == 3 {
		out.Photometric = YBRRCT
		if lossy {
			out.Photometric = YBRICT
		}
	}
	return out, nil
}

// decode returns the native little endian pixel data of img.
func (f *ChangeTransferSyntax) decode(img *Image) (PixelData, error) {
	decoder, ok := f.decoder(img.TransferSyntax)
	if !ok {
		return PixelData{}, CapabilityError(fmt.Sprintf("no codec can decode %s", img.TransferSyntax))
	}
	f.logger.Debugf("decoding %s with %s codec", img.TransferSyntax, decoder.Name())
	native, err := decoder.Decode(img, img.PixelData)
	if err != nil {
		return PixelData{}, errors.Wrapf(err, "%s codec", decoder.Name())
	}
	return native, nil
}

func (f *ChangeTransferSyntax) encoder(ts TransferSyntax) (Codec, bool) {
	if f.UserCodec != nil && f.UserCodec.CanCode(ts) {
		return f.UserCodec, true
	}
	return f.Codecs.Encoder(ts)
}

func (f *ChangeTransferSyntax) decoder(ts TransferSyntax) (Codec, bool) {
	if f.UserCodec != nil && f.UserCodec.CanDecode(ts) {
		return f.UserCodec, true
	}
	return f.Codecs.Decoder(ts)
}
