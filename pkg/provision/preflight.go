package provision

import (
	"context"
	"os"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
)

// ErrDeclined is returned when the user answers no to a preflight question
var ErrDeclined = errors.New(errors.ErrCancelled, "declined by user")

// PreflightKDE reports the detected system, asks before installing the base
// packages, and installs them. Failing to install them is fatal.
func (p *Provisioner) PreflightKDE(ctx context.Context, assumeYes bool) error {
	p.Printer.Info("Detected OS: %s", p.Host.DescribeOS())

	switch major := p.Host.PlasmaMajor(ctx); {
	case major >= 6:
		p.Printer.Info("Detected KDE Plasma %d (OK).", major)
	case major > 0:
		p.Printer.Warn("Detected KDE Plasma major version %d. "+
			"This tool is designed for Plasma 6; continue at your own risk.", major)
	default:
		p.Printer.Warn("Could not detect KDE Plasma from 'plasmashell --version'. " +
			"This tool is intended for KDE Plasma 6 on Debian 13.")
	}

	base := p.Config.Packages.Base
	if !assumeYes {
		p.Printer.Println()
		p.Printer.Println("This will use apt to install the following base packages:")
		p.Printer.Println("  " + strings.Join(base, " "))
		ok, err := p.Printer.Confirm("Proceed?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeclined
		}
	}

	p.Printer.Info("Installing base dependencies with apt: %s", strings.Join(base, " "))
	if err := p.Apt.Install(ctx, base...); err != nil {
		return errors.Wrap(err, errors.ErrDependency, "failed to install base dependencies, please check apt output")
	}
	p.Printer.Info("Base dependencies installed. Continuing...")
	return nil
}

// PreflightGNOME warns when GNOME is not running or too old, then asks
// whether the documented dependencies are installed.
func (p *Provisioner) PreflightGNOME(ctx context.Context, assumeYes bool) error {
	if !strings.Contains(strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP")), "gnome") {
		p.Printer.Warn("GNOME does not seem to be running; some steps only work inside a GNOME session.")
	}

	minimum := p.Config.Gnome.MinVersion
	switch major := p.Host.GnomeMajor(ctx); {
	case major == 0:
		p.Printer.Warn("Unable to detect the GNOME version (gnome-session --version failed).")
	case major < minimum:
		p.Printer.Warn("GNOME %d detected; GNOME %d or above is required for the extensions.", major, minimum)
	default:
		p.Printer.Info("Detected GNOME %d (OK).", major)
	}

	if assumeYes {
		return nil
	}
	ok, err := p.Printer.ConfirmDefaultNo("Have you installed all the dependencies listed on the project page?")
	if err != nil {
		return err
	}
	if !ok {
		p.Printer.Println("You need to install the dependencies listed on the project page before running this!")
		return ErrDeclined
	}
	return nil
}

// Preflight runs the checks for desktop
func (p *Provisioner) Preflight(ctx context.Context, desktop string, assumeYes bool) error {
	if desktop == desktopGNOME {
		return p.PreflightGNOME(ctx, assumeYes)
	}
	return p.PreflightKDE(ctx, assumeYes)
}
