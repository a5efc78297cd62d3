// Package doctor manages doctor profiles and the "current doctor" selection
// used as the header/signature source for rendered prescriptions.
package doctor

// Profile is one doctor record.
type Profile struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Degrees        []string `json:"degrees"`
	Specialty      string   `json:"specialty"`
	BMDCNo         string   `json:"bmdcNo"`
	ChamberName    string   `json:"chamberName"`
	ChamberAddress string   `json:"chamberAddress"`
	Mobile         string   `json:"mobile"`
	Email          string   `json:"email,omitempty"`
	Designation    string   `json:"designation,omitempty"`
}

// Patch carries the mutable profile fields; nil fields are left untouched.
type Patch struct {
	Name           *string   `json:"name,omitempty"`
	Degrees        *[]string `json:"degrees,omitempty"`
	Specialty      *string   `json:"specialty,omitempty"`
	BMDCNo         *string   `json:"bmdcNo,omitempty"`
	ChamberName    *string   `json:"chamberName,omitempty"`
	ChamberAddress *string   `json:"chamberAddress,omitempty"`
	Mobile         *string   `json:"mobile,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Designation    *string   `json:"designation,omitempty"`
}

func (p Patch) apply(d *Profile) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Degrees != nil {
		d.Degrees = *p.Degrees
	}
	if p.Specialty != nil {
		d.Specialty = *p.Specialty
	}
	if p.BMDCNo != nil {
		d.BMDCNo = *p.BMDCNo
	}
	if p.ChamberName != nil {
		d.ChamberName = *p.ChamberName
	}
	if p.ChamberAddress != nil {
		d.ChamberAddress = *p.ChamberAddress
	}
	if p.Mobile != nil {
		d.Mobile = *p.Mobile
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Designation != nil {
		d.Designation = *p.Designation
	}
}
