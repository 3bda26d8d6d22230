package glsllib

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// CPU counterparts of the optics snippets, used to pick material constants and
// to check the GLSL against known values.

// TotalInternalReflectionCutoffCPU mirrors [TotalInternalReflectionCutoff].
func TotalInternalReflectionCutoffCPU(na, nb float32) float32 {
	if na <= nb {
		return 0
	}
	ratio := nb / na
	return math.Sqrt(1 - ratio*ratio)
}

// FresnelDielectricCPU mirrors [FresnelDielectric] for the cosines of the
// incident and transmitted rays against the normal.
func FresnelDielectricCPU(cosIncident, cosTransmitted, na, nb float32) (sReflect, pReflect float32) {
	doti := math.Abs(cosIncident)
	dott := math.Abs(cosTransmitted)
	s := (na*doti - nb*dott) / (na*doti + nb*dott)
	p := (na*dott - nb*doti) / (na*dott + nb*doti)
	return s * s, p * p
}

// FresnelCPU mirrors [Fresnel], the reflectance against a conductor of
// complex index nb+ik.
func FresnelCPU(cosIncident, na, nb, k float32) (sReflect, pReflect float32) {
	doti := math.Abs(cosIncident)
	mag := nb*nb + k*k
	comm := na * na * (doti*doti - 1) / (mag * mag)
	resq := 1 + comm*(nb*nb-k*k)
	imsq := 2 * comm * nb * k
	temdott := math.Sqrt(resq*resq + imsq*imsq)
	redott := math.Sqrt2 / 2 * math.Sqrt(temdott+resq)
	imdott := math.Sqrt2 / 2 * math.Sqrt(temdott-resq)
	if imsq < 0 {
		imdott = -imdott
	}
	renpdott := nb*redott + k*imdott
	imnpdott := nb*imdott - k*redott

	retop := na*doti - renpdott
	rebot := na*doti + renpdott
	retdet := rebot*rebot + imnpdott*imnpdott
	reret := (retop*rebot - imnpdott*imnpdott) / retdet
	imret := (-imnpdott*rebot - retop*imnpdott) / retdet
	sReflect = reret*reret + imret*imret

	retop = (nb*nb-k*k)*doti - na*renpdott
	rebot = (nb*nb-k*k)*doti + na*renpdott
	imtop := -2*nb*k*doti - na*imnpdott
	imbot := -2*nb*k*doti + na*imnpdott
	retdet = rebot*rebot + imbot*imbot
	reret = (retop*rebot + imtop*imbot) / retdet
	imret = (imtop*rebot - retop*imbot) / retdet
	pReflect = reret*reret + imret*imret
	return sReflect, pReflect
}

// SellmeierDispersionCPU mirrors [SellmeierDispersion] with the B and C
// coefficients packed in vectors and wavelength in nanometers.
func SellmeierDispersionCPU(b, c ms3.Vec, wavelength float32) float32 {
	lams := wavelength * wavelength / 1e6
	return math.Sqrt(1 + b.X*lams/(lams-c.X) + b.Y*lams/(lams-c.Y) + b.Z*lams/(lams-c.Z))
}

// Sellmeier coefficients of common glasses.
var (
	SellmeierBK7B         = ms3.Vec{X: 1.03961212, Y: 0.231792344, Z: 1.01046945}
	SellmeierBK7C         = ms3.Vec{X: 0.00600069867, Y: 0.0200179144, Z: 103.560653}
	SellmeierFusedSilicaB = ms3.Vec{X: 0.6961663, Y: 0.4079426, Z: 0.8974794}
	SellmeierFusedSilicaC = ms3.Vec{X: 0.00467914826, Y: 0.0135120631, Z: 97.9340025}
)
